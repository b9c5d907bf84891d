// Package metrics provides Prometheus metrics collection for dittofd.
//
// All metrics are optional. If the registry is not initialized, constructors
// return no-op implementations, so the kernel and stores run the same way
// with or without collection enabled.
//
// Usage:
//
//	// Initialize global registry (typically in main.go)
//	metrics.InitRegistry()
//
//	// Create metrics instances for components
//	syscallMetrics := prometheus.NewSyscallMetrics()
//	s3Metrics := metrics.NewS3Metrics()
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registry is written once by InitRegistry and read afterwards.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// Call it before creating any metrics instances. Subsequent calls are ignored.
// If it is never called, GetRegistry returns nil and constructors return
// no-op implementations.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global Prometheus registry, or nil if metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
