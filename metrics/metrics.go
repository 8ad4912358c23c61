// Package metrics provides Prometheus metrics for the advisor service.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Domain metrics:
//   - recommendations_total: Counter by matched scenario
//   - safety_alerts_total: Counter by alert severity and category on the chosen primary
//   - primary_substitutions_total: Counter of blocked primaries replaced
//   - surveillance_refresh_total: Counter of snapshot refreshes by status
//   - surveillance_snapshot_age_seconds: Gauge of the current snapshot's age
//
// All metrics are registered with the Prometheus default registry during package
// initialization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/giygas/antibiotic-advisor/recommend"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen since the last cleanup)",
		},
	)

	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Recommendations produced, by matched scenario",
		},
		[]string{"scenario"},
	)

	SafetyAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safety_alerts_total",
			Help: "Safety alerts attached to recommended primaries",
		},
		[]string{"severity", "category"},
	)

	PrimarySubstitutionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "primary_substitutions_total",
			Help: "Blocked scenario primaries replaced by a substitute",
		},
	)

	SurveillanceRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveillance_refresh_total",
			Help: "Surveillance snapshot refreshes by status",
		},
		[]string{"status"},
	)

	SurveillanceSnapshotAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "surveillance_snapshot_age_seconds",
			Help: "Age of the current surveillance snapshot",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		RecommendationsTotal,
		SafetyAlertsTotal,
		PrimarySubstitutionsTotal,
		SurveillanceRefreshTotal,
		SurveillanceSnapshotAge,
	)
}

// ObserveRecommendation records the domain counters for one recommendation.
func ObserveRecommendation(rec recommend.Recommendation) {
	RecommendationsTotal.WithLabelValues(rec.Scenario.ID).Inc()
	for _, a := range rec.Primary.Alerts {
		SafetyAlertsTotal.WithLabelValues(string(a.Severity), string(a.Category)).Inc()
	}
	if rec.Substitution != nil {
		PrimarySubstitutionsTotal.Inc()
	}
}

// ObserveRefresh records a refresh outcome and, on success, the snapshot date.
func ObserveRefresh(status string, asOf time.Time) {
	SurveillanceRefreshTotal.WithLabelValues(status).Inc()
	if !asOf.IsZero() {
		SurveillanceSnapshotAge.Set(time.Since(asOf).Seconds())
	}
}
