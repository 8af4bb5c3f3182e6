package prometheus

import (
	"strconv"
	"time"
)

// RACMetrics holds the descriptor service metrics.
type RACMetrics struct {
	// Engine
	MoleculesComputed   CounterVec
	MoleculesFailed     CounterVec
	ComputeDuration     HistogramVec
	BatchSize           HistogramVec
	NaNColumns          GaugeVec
	FeatureColumns      GaugeVec
	TableExportsTotal   CounterVec
	GraphStoreLoadTotal CounterVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	// Worker
	WorkerMessagesTotal   CounterVec
	WorkerMessageDuration HistogramVec
}

// Default buckets.
var (
	DefaultHTTPDurationBuckets    = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultComputeDurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 30, 120}
	DefaultBatchSizeBuckets       = []float64{1, 10, 50, 100, 500, 1000, 5000, 10000}
)

// NewRACMetrics registers every family on collector.
func NewRACMetrics(collector MetricsCollector) *RACMetrics {
	m := &RACMetrics{}

	m.MoleculesComputed = collector.RegisterCounter("molecules_computed_total", "Molecules whose descriptors were computed", "source")
	m.MoleculesFailed = collector.RegisterCounter("molecules_failed_total", "Molecules whose descriptor computation failed", "source", "code")
	m.ComputeDuration = collector.RegisterHistogram("compute_duration_seconds", "Descriptor computation duration", DefaultComputeDurationBuckets, "operation")
	m.BatchSize = collector.RegisterHistogram("batch_size", "Molecules per batch", DefaultBatchSizeBuckets, "source")
	m.NaNColumns = collector.RegisterGauge("batch_nan_columns", "Columns with NaN values in the last batch", "source")
	m.FeatureColumns = collector.RegisterGauge("batch_feature_columns", "Feature columns in the last batch", "source")
	m.TableExportsTotal = collector.RegisterCounter("table_exports_total", "Descriptor tables exported to object storage", "format", "status")
	m.GraphStoreLoadTotal = collector.RegisterCounter("graph_store_loads_total", "Molecules loaded from the graph store", "status")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")

	m.WorkerMessagesTotal = collector.RegisterCounter("worker_messages_total", "Messages handled by the descriptor worker", "topic", "status")
	m.WorkerMessageDuration = collector.RegisterHistogram("worker_message_duration_seconds", "Message handling duration", DefaultComputeDurationBuckets, "topic")

	return m
}

// NewNoopRACMetrics returns metrics that record nothing.
func NewNoopRACMetrics() *RACMetrics { return NewRACMetrics(NewNoopCollector()) }

// RecordBatch records the outcome of one descriptor batch.
func (m *RACMetrics) RecordBatch(source string, computed, nanColumns, columns int, failureCodes []string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BatchSize.WithLabelValues(source).Observe(float64(computed + len(failureCodes)))
	m.MoleculesComputed.WithLabelValues(source).Add(float64(computed))
	for _, code := range failureCodes {
		m.MoleculesFailed.WithLabelValues(source, code).Inc()
	}
	m.NaNColumns.WithLabelValues(source).Set(float64(nanColumns))
	m.FeatureColumns.WithLabelValues(source).Set(float64(columns))
	m.ComputeDuration.WithLabelValues("batch").Observe(duration.Seconds())
}

// RecordMolecule records one single-molecule computation.
func (m *RACMetrics) RecordMolecule(source, failureCode string, duration time.Duration) {
	if m == nil {
		return
	}
	if failureCode != "" {
		m.MoleculesFailed.WithLabelValues(source, failureCode).Inc()
	} else {
		m.MoleculesComputed.WithLabelValues(source).Inc()
	}
	m.ComputeDuration.WithLabelValues("molecule").Observe(duration.Seconds())
}

// RecordExport records a table export attempt.
func (m *RACMetrics) RecordExport(format string, err error) {
	if m == nil {
		return
	}
	m.TableExportsTotal.WithLabelValues(format, status(err)).Inc()
}

// RecordGraphLoad records a graph-store load attempt.
func (m *RACMetrics) RecordGraphLoad(err error) {
	if m == nil {
		return
	}
	m.GraphStoreLoadTotal.WithLabelValues(status(err)).Inc()
}

// RecordHTTPRequest records one served request.
func (m *RACMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordWorkerMessage records one consumed message. result is "ok",
// "retried" or "dead_lettered".
func (m *RACMetrics) RecordWorkerMessage(topic, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.WorkerMessagesTotal.WithLabelValues(topic, result).Inc()
	m.WorkerMessageDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
