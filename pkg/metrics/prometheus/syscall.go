// Package prometheus holds the Prometheus-backed metrics implementations.
package prometheus

import (
	"time"

	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// syscallMetrics is the Prometheus implementation of metrics.SyscallMetrics.
type syscallMetrics struct {
	callsTotal       *prometheus.CounterVec
	callDuration     *prometheus.HistogramVec
	bytesTransferred *prometheus.CounterVec
	openHandles      prometheus.Gauge
}

// NewSyscallMetrics creates a SyscallMetrics registered on the global
// registry.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not
// called).
func NewSyscallMetrics() metrics.SyscallMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopSyscallMetrics()
	}
	return NewSyscallMetricsWith(metrics.GetRegistry())
}

// NewSyscallMetricsWith creates a SyscallMetrics registered on reg.
// It panics if the collectors are already registered there.
func NewSyscallMetricsWith(reg prometheus.Registerer) metrics.SyscallMetrics {
	return &syscallMetrics{
		callsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittofd_syscalls_total",
				Help: "Total number of system calls by name and result errno",
			},
			[]string{"syscall", "errno"},
		),
		callDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittofd_syscall_duration_milliseconds",
				Help: "Duration of system calls in milliseconds",
				Buckets: []float64{
					0.01, // 10us
					0.1,  // 100us
					1,    // 1ms
					10,   // 10ms
					100,  // 100ms
					1000, // 1s
				},
			},
			[]string{"syscall"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittofd_bytes_transferred_total",
				Help: "Total bytes moved by read and write",
			},
			[]string{"direction"},
		),
		openHandles: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittofd_open_handles",
				Help: "Current number of open-file handles",
			},
		),
	}
}

func (m *syscallMetrics) RecordSyscall(name string, duration time.Duration, err error) {
	code := "OK"
	if err != nil {
		code = errno.Code(err).Name()
	}

	m.callsTotal.WithLabelValues(name, code).Inc()
	m.callDuration.WithLabelValues(name).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *syscallMetrics) RecordBytes(direction string, bytes int64) {
	if bytes > 0 {
		m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
	}
}

func (m *syscallMetrics) HandleOpened() {
	m.openHandles.Inc()
}

func (m *syscallMetrics) HandleClosed() {
	m.openHandles.Dec()
}
