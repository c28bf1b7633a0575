package coorbital

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeConverged    = "converged"
	outcomeInfeasible   = "infeasible"
	outcomeNonConverged = "nonconverged"
	outcomeDegenerate   = "degenerate"
)

var (
	lambertSolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coorbital_lambert_solutions_total",
			Help: "Lambert p-iteration outcomes.",
		},
		[]string{"outcome"},
	)

	lambertIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coorbital_lambert_iterations",
			Help:    "Number of p-iterations of converged Lambert solutions.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	searchCandidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coorbital_search_candidates_total",
			Help: "Candidate maneuver epochs evaluated by the rendezvous search.",
		},
		[]string{"feasible"},
	)

	plans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coorbital_plans_total",
			Help: "Burn plans computed, per burn and result.",
		},
		[]string{"burn", "result"},
	)

	planDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coorbital_plan_duration_seconds",
			Help:    "Wall time spent computing a burn plan.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"burn"},
	)
)

func init() {
	prometheus.MustRegister(lambertSolutions)
	prometheus.MustRegister(lambertIterations)
	prometheus.MustRegister(searchCandidates)
	prometheus.MustRegister(plans)
	prometheus.MustRegister(planDurationSeconds)
}

// MetricsHandler returns the Prometheus metrics HTTP handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
