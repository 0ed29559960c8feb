package observability

import (
	"time"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Operation labels shared by the request counter and duration histogram.
const (
	OpAnalyze       = "analyze"
	OpCategories    = "categories"
	OpExport        = "export"
	OpSummary       = "summary"
	OpByDate        = "by_date"
	OpTopCategories = "top_categories"
	OpTrends        = "trends"
	OpVoice         = "voice"
)

// AnalysisOperations are the operations counted as analyze requests in the
// pipeline snapshot.
var AnalysisOperations = []string{
	OpAnalyze, OpCategories, OpExport, OpSummary, OpByDate, OpTopCategories, OpTrends,
}

// Metrics holds all Prometheus metrics for the analysis service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	requestsTotal    *prometheus.CounterVec
	transactions     prometheus.Counter
	externalErrors   *prometheus.CounterVec
	transcriptFails  *prometheus.CounterVec
	modelLoads       *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	chartRenderTimes *prometheus.HistogramVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spend_request_duration_seconds",
				Help:    "Duration of pipeline operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spend_requests_total",
				Help: "Total pipeline requests by operation and outcome.",
			},
			[]string{"operation", "status"},
		),
		transactions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spend_transactions_analysed_total",
				Help: "Transactions that survived filtering and were aggregated.",
			},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spend_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		transcriptFails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spend_transcription_failures_total",
				Help: "Transcriptions that failed or returned no text.",
			},
			[]string{"reason"},
		),
		modelLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spend_model_loads_total",
				Help: "Speech model load attempts by outcome.",
			},
			[]string{"status"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spend_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spend_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		chartRenderTimes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spend_chart_render_seconds",
				Help:    "Time spent rendering each chart.",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"chart"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRequest counts a request for operation with a status label
// ("success" or "error").
func (m *Metrics) IncrRequest(operation, status string) {
	m.requestsTotal.WithLabelValues(operation, status).Inc()
}

// ObserveRequest counts one finished operation and records its duration
// under the same label.
func (m *Metrics) ObserveRequest(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.IncrRequest(operation, status)
	m.RecordRequestDuration(operation, time.Since(start))
}

// AddTransactions counts aggregated transactions.
func (m *Metrics) AddTransactions(n int) {
	m.transactions.Add(float64(n))
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrTranscriptionFailure counts a failed or empty transcription.
func (m *Metrics) IncrTranscriptionFailure(reason string) {
	m.transcriptFails.WithLabelValues(reason).Inc()
}

// IncrModelLoad counts a model load attempt with "success" or "error".
func (m *Metrics) IncrModelLoad(status string) {
	m.modelLoads.WithLabelValues(status).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordChartRender records how long one chart took to draw.
func (m *Metrics) RecordChartRender(chart string, d time.Duration) {
	m.chartRenderTimes.WithLabelValues(chart).Observe(d.Seconds())
}

// Snapshot returns the pipeline counters suitable for the
// GET /v1/metrics/pipeline endpoint. modelState is reported as-is.
func (m *Metrics) Snapshot(modelState string) *domain.PipelineMetrics {
	// Prometheus counters expose cumulative values.
	var analyze, analyzeErrors float64
	for _, op := range AnalysisOperations {
		analyze += getCounterValue(m.requestsTotal, op, "success")
		analyzeErrors += getCounterValue(m.requestsTotal, op, "error")
	}
	analyze += analyzeErrors
	voice := getCounterValue(m.requestsTotal, OpVoice, "success") +
		getCounterValue(m.requestsTotal, OpVoice, "error")
	errors := analyzeErrors + getCounterValue(m.requestsTotal, OpVoice, "error")

	failures := getCounterValue(m.transcriptFails, "error") +
		getCounterValue(m.transcriptFails, "empty")
	hits := getCounterValue(m.cacheHits, "transcript")
	misses := getCounterValue(m.cacheMisses, "transcript")

	errorRate := float64(0)
	if analyze+voice > 0 {
		errorRate = errors / (analyze + voice)
	}
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.PipelineMetrics{
		AnalyzeRequests:       int64(analyze),
		VoiceRequests:         int64(voice),
		ErrorRate:             errorRate,
		TransactionsAnalysed:  int64(readCounter(m.transactions)),
		TranscriptionFailures: int64(failures),
		ModelLoads:            int64(getCounterValue(m.modelLoads, "success")),
		ModelLoadFailures:     int64(getCounterValue(m.modelLoads, "error")),
		TranscriptCacheHit:    hitRate,
		ModelState:            modelState,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	return readCounter(cv.WithLabelValues(labels...))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
