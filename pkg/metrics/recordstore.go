package metrics

import "github.com/prometheus/client_golang/prometheus"

// RecordStoreMetrics counts failed record store calls by table and operation.
type RecordStoreMetrics struct {
	errors *prometheus.CounterVec
}

func NewRecordStoreMetrics(reg prometheus.Registerer) *RecordStoreMetrics {
	if reg == nil {
		return &RecordStoreMetrics{}
	}
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "record_store_errors_total",
		Help:      "Record store calls that failed, by table and operation.",
	}, []string{"table", "operation"})
	reg.MustRegister(errs)
	return &RecordStoreMetrics{errors: errs}
}

func (m *RecordStoreMetrics) IncError(table, operation string) {
	if m == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(normalizeLabel(table), normalizeLabel(operation)).Inc()
}
