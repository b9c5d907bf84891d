package config

import (
	"github.com/marmos91/dittofd/pkg/metrics"
	promMetrics "github.com/marmos91/dittofd/pkg/metrics/prometheus"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// SyscallMetrics records kernel entry and exit (never nil, uses noop if disabled)
	SyscallMetrics metrics.SyscallMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed syscall metrics
//
// Store metrics (S3, metadata) read the global registry when their stores
// are created, so call InitializeMetrics before CreateContentStore and
// CreateMetadataStore.
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			Server:         nil,
			SyscallMetrics: metrics.NewNoopSyscallMetrics(),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Metrics.Port,
	})

	return &MetricsResult{
		Server:         server,
		SyscallMetrics: promMetrics.NewSyscallMetrics(),
	}
}
