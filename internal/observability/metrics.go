package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	appraisalsTotal     *prometheus.CounterVec
	appraisalDuration   *prometheus.HistogramVec
	parseOutcomesTotal  *prometheus.CounterVec
	imagesRejectedTotal prometheus.Counter
	authenticityScores  prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appraiser_http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "appraiser_http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.05, 0.25, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appraiser_http_errors_total",
			Help: "Total number of error responses.",
		}, []string{"method", "route", "status"})

		appraisalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appraiser_appraisals_total",
			Help: "Appraisals by outcome.",
		}, []string{"outcome"})

		appraisalDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "appraiser_appraisal_duration_seconds",
			Help:    "End to end appraisal duration.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 180, 300},
		}, []string{"outcome"})

		parseOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appraiser_parse_outcomes_total",
			Help: "Completions by parse mode and fallback reason.",
		}, []string{"mode", "reason"})

		imagesRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appraiser_images_rejected_total",
			Help: "Images skipped during prompt assembly.",
		})

		authenticityScores = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "appraiser_authenticity_score",
			Help:    "Distribution of authenticity scores.",
			Buckets: []float64{20, 40, 60, 70, 80, 90, 100},
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			appraisalsTotal,
			appraisalDuration,
			parseOutcomesTotal,
			imagesRejectedTotal,
			authenticityScores,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Appraisals exposes the appraisal outcome counter.
func Appraisals() *prometheus.CounterVec {
	RegisterMetrics()
	return appraisalsTotal
}

// AppraisalDuration exposes the appraisal duration histogram.
func AppraisalDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return appraisalDuration
}

// ParseOutcomes exposes the parse mode counter.
func ParseOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return parseOutcomesTotal
}

// ImagesRejected exposes the skipped image counter.
func ImagesRejected() prometheus.Counter {
	RegisterMetrics()
	return imagesRejectedTotal
}

// AuthenticityScores exposes the score histogram.
func AuthenticityScores() prometheus.Histogram {
	RegisterMetrics()
	return authenticityScores
}
