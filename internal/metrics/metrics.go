package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToolCalls counts tool invocations by outcome.
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_calls_total",
			Help: "Total number of tool calls",
		},
		[]string{"tool_name", "status"},
	)

	// CalculationErrors counts failed calculations by error type.
	CalculationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calculation_errors_total",
			Help: "Number of failed calculations",
		},
		[]string{"tool_name", "error_type"},
	)

	// APICalls counts calls per transport endpoint.
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_calls_total",
			Help: "Tool API calls",
		},
		[]string{"service", "endpoint", "status"},
	)

	// SimulationMonths observes how many months a cascading simulation ran.
	SimulationMonths = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simulation_months",
			Help:    "Months simulated until every loan was retired",
			Buckets: []float64{12, 24, 60, 120, 240, 360, 600, 1200},
		},
		[]string{"strategy"},
	)

	// CacheLookups counts result cache hits and misses.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Result cache lookups",
		},
		[]string{"tool_name", "result"},
	)
)
