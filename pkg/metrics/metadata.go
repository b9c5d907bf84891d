package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetadataMetrics provides observability for metadata store operations.
//
// It satisfies metadata.OperationRecorder, so a store can be wrapped with
// metadata.Instrument.
type MetadataMetrics interface {
	// RecordOperation records a completed metadata operation.
	//
	// Parameters:
	//   - operation: Operation name (e.g., "Lookup", "Create", "SetSize")
	//   - duration: Time taken to complete the operation
	//   - err: Error if the operation failed, nil if successful
	RecordOperation(operation string, duration time.Duration, err error)
}

type metadataMetrics struct {
	storeType         string
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewMetadataMetrics creates a Prometheus-backed MetadataMetrics on the
// global registry.
//
// Parameters:
//   - storeType: Type of metadata store ("memory", "badger"), used as a label
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewMetadataMetrics(storeType string) MetadataMetrics {
	if !IsEnabled() {
		return nil
	}
	return NewMetadataMetricsWith(GetRegistry(), storeType)
}

// NewMetadataMetricsWith creates a MetadataMetrics registered on reg.
func NewMetadataMetricsWith(reg prometheus.Registerer, storeType string) MetadataMetrics {
	return &metadataMetrics{
		storeType: storeType,
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittofd_metadata_operations_total",
				Help: "Total number of metadata operations by store type, operation, and status",
			},
			[]string{"store_type", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittofd_metadata_operation_duration_seconds",
				Help: "Duration of metadata operations in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.001,  // 1ms
					0.01,   // 10ms
					0.1,    // 100ms
					1.0,    // 1s
				},
			},
			[]string{"store_type", "operation"},
		),
	}
}

func (m *metadataMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(m.storeType, operation, status).Inc()
	m.operationDuration.WithLabelValues(m.storeType, operation).Observe(duration.Seconds())
}
