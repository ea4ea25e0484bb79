package verify

import "github.com/eth2030/blsworker/metrics"

// Registry metric names.
const (
	metricRequests         = "bls_requests_total"
	metricBatchRetries     = "bls_batch_retries_total"
	metricBatchSigsSuccess = "bls_batch_sigs_success_total"
	metricDuplicateSets    = "bls_batch_duplicate_sets_total"
	metricWorkerPanics     = "bls_worker_panics_total"
	metricRequestDuration  = "bls_request_duration_ms"
	metricQueueDepth       = "bls_queue_depth"
)

// engineMetrics bundles the process-wide counters the engine feeds. The
// per-request counts in WorkMetrics are independent of these.
type engineMetrics struct {
	requests         *metrics.Counter
	batchRetries     *metrics.Counter
	batchSigsSuccess *metrics.Counter
	duplicateSets    *metrics.Counter
	workerPanics     *metrics.Counter
	requestDuration  *metrics.Histogram
	queueDepth       *metrics.Gauge
}

func newEngineMetrics(r *metrics.Registry) *engineMetrics {
	return &engineMetrics{
		requests:         r.Counter(metricRequests),
		batchRetries:     r.Counter(metricBatchRetries),
		batchSigsSuccess: r.Counter(metricBatchSigsSuccess),
		duplicateSets:    r.Counter(metricDuplicateSets),
		workerPanics:     r.Counter(metricWorkerPanics),
		requestDuration:  r.Histogram(metricRequestDuration),
		queueDepth:       r.Gauge(metricQueueDepth),
	}
}
