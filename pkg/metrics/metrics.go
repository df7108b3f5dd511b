// Package metrics exposes the engine's Prometheus collectors, grounded on
// aretw0-trellis's structured-logging example (a
// CounterVec per lifecycle event plus a HistogramVec for durations,
// registered once and served over promhttp).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors bundles the run, operation and tool-call counters/histograms.
// No other package in this module updates them.
type Collectors struct {
	RunsTotal       *prometheus.CounterVec
	OperationSecs   *prometheus.HistogramVec
	ToolCallsTotal  *prometheus.CounterVec
	ToolCallSecs    *prometheus.HistogramVec
}

// New builds and registers the collectors against reg. Pass
// prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer to expose via promhttp.Handler().
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fractalic_runs_total",
			Help: "Total number of workflow runs, by terminal status.",
		}, []string{"status"}),
		OperationSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "fractalic_operation_duration_seconds",
			Help: "Duration of individual operation executions.",
		}, []string{"operation"}),
		ToolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fractalic_tool_calls_total",
			Help: "Total number of tool invocations, by tool and outcome.",
		}, []string{"tool", "outcome"}),
		ToolCallSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "fractalic_tool_call_duration_seconds",
			Help: "Duration of individual tool invocations.",
		}, []string{"tool"}),
	}
	reg.MustRegister(c.RunsTotal, c.OperationSecs, c.ToolCallsTotal, c.ToolCallSecs)
	return c
}

// Handler returns the /metrics HTTP handler for the given registry.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
