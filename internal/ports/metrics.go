package ports

// MetricsCollector abstracts metric recording so infrastructure can plug
// in Prometheus (or a test fake) without the core depending on a metrics
// library. Label maps are small and low-cardinality by convention.
type MetricsCollector interface {
	RecordCounter(name string, value float64, labels map[string]string)
	RecordHistogram(name string, value float64, labels map[string]string)
	RecordGauge(name string, value float64, labels map[string]string)
}
