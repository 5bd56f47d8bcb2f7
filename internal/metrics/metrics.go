package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auditlens"

var (
	registerOnce sync.Once

	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})
	requestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served",
	})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"route"})

	matchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_matches_total",
		Help:      "Fuzzy match attempts by entry point and outcome (hit/miss)",
	}, []string{"kind", "outcome"})
	reportsCached = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reports_cached",
		Help:      "Enriched report records held in memory",
	})
	documentsIndexed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "explanation_documents_indexed",
		Help:      "Markdown documents in the explanation index",
	})
	bugUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bug_uploads_total",
		Help:      "Bug dataset uploads by outcome",
	}, []string{"outcome"})
)

// Register adds the collectors to the default registry (idempotent).
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestsTotal, requestsInFlight, requestDuration,
			matchesTotal, reportsCached, documentsIndexed, bugUploads)
	})
}

func IncInFlight() { requestsInFlight.Inc() }
func DecInFlight() { requestsInFlight.Dec() }

// ObserveRequest records one finished HTTP request.
func ObserveRequest(route, method, status string, d time.Duration) {
	requestsTotal.WithLabelValues(route, method, status).Inc()
	requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveMatch counts a resolver outcome. kind is "path" or "query".
func ObserveMatch(kind string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	matchesTotal.WithLabelValues(kind, outcome).Inc()
}

func SetReportsCached(n int)    { reportsCached.Set(float64(n)) }
func SetDocumentsIndexed(n int) { documentsIndexed.Set(float64(n)) }

func IncBugUpload(ok bool) {
	if ok {
		bugUploads.WithLabelValues("success").Inc()
		return
	}
	bugUploads.WithLabelValues("failed").Inc()
}
