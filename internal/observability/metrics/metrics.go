package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agroregistry_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agroregistry_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	registrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agroregistry_registrations_total",
		Help: "Cluster registration attempts by result",
	}, []string{"result"})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agroregistry_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	workflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agroregistry_workflow_transitions_total",
		Help: "Approval workflow transitions by kind and result",
	}, []string{"transition", "result"})

	reportUpserts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agroregistry_report_upserts_total",
		Help: "Yearly report upserts by result",
	}, []string{"result"})

	regionViewBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agroregistry_region_view_builds_total",
		Help: "Region view materializations by source (cache or store)",
	}, []string{"source"})

	pendingClusters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agroregistry_pending_clusters",
		Help: "Clusters currently awaiting an admin decision",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveRegistration counts a registration attempt with a result label.
func ObserveRegistration(result string) {
	registrationsTotal.WithLabelValues(result).Inc()
}

// ObserveLogin counts a login attempt with a result label.
func ObserveLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

// ObserveTransition counts an approval workflow transition.
func ObserveTransition(transition, result string) {
	workflowTransitions.WithLabelValues(transition, result).Inc()
}

// ObserveReportUpsert counts a report upsert attempt.
func ObserveReportUpsert(result string) {
	reportUpserts.WithLabelValues(result).Inc()
}

// ObserveRegionViewBuild counts a region view build and where it came from.
func ObserveRegionViewBuild(source string) {
	regionViewBuilds.WithLabelValues(source).Inc()
}

// SetPendingClusters sets the pending cluster gauge.
func SetPendingClusters(count int) {
	if count < 0 {
		count = 0
	}
	pendingClusters.Set(float64(count))
}
