package metrics

import "github.com/prometheus/client_golang/prometheus"

// Application metrics, registered by internal/server.MetricsServer.

var (
	// RiskAssessmentsTotal counts computed risk assessments by level.
	RiskAssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_risk_assessments_total",
			Help: "Total number of churn risk assessments computed",
		},
		[]string{"level"},
	)

	// WeightFallbacksTotal counts reads that degraded to the default
	// weight map. A nonzero rate usually means the weight store is down,
	// not that no weights are configured.
	WeightFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "churn_risk_weight_fallbacks_total",
			Help: "Total number of weight reads that fell back to defaults",
		},
	)

	// AccuracyEvaluationsTotal counts retroactive accuracy runs.
	AccuracyEvaluationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "churn_risk_accuracy_evaluations_total",
			Help: "Total number of retroactive accuracy evaluations",
		},
	)

	// AccuracyEvaluationDuration observes end-to-end evaluation time.
	AccuracyEvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "churn_risk_accuracy_evaluation_duration_seconds",
			Help:    "Duration of retroactive accuracy evaluations",
			Buckets: prometheus.DefBuckets,
		},
	)

	// WeightUpdatesTotal counts weight update transactions by outcome.
	WeightUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_risk_weight_updates_total",
			Help: "Total number of weight update transactions",
		},
		[]string{"outcome"},
	)
)

// Register registers all application collectors on the given registry.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		RiskAssessmentsTotal,
		WeightFallbacksTotal,
		AccuracyEvaluationsTotal,
		AccuracyEvaluationDuration,
		WeightUpdatesTotal,
	)
}
