// Package metrics exposes Prometheus instrumentation for the
// orchestrator and gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsProcessed counts completed turns by outcome
	// (reply, suspended, producer_error, capped).
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripdesk_turns_processed_total",
			Help: "Total conversation turns processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// TurnDuration tracks end-to-end turn latency.
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripdesk_turn_duration_seconds",
			Help:    "Time to process one conversation turn.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ToolExecutions counts tool runs by tool id and outcome
	// (ok, failed, rejected).
	ToolExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripdesk_tool_executions_total",
			Help: "Total tool executions, by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)

	// Approvals counts human decisions on sensitive calls
	// (approve, deny, abandoned).
	Approvals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripdesk_approvals_total",
			Help: "Total approval decisions on sensitive tool calls.",
		},
		[]string{"decision"},
	)

	// ActiveSuspensions gauges threads currently awaiting approval.
	ActiveSuspensions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripdesk_active_suspensions",
			Help: "Threads currently suspended at an approval gate.",
		},
	)

	// Delegations counts pushes onto the dialog stack by workflow.
	Delegations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripdesk_delegations_total",
			Help: "Total delegations to specialized assistants, by workflow.",
		},
		[]string{"workflow"},
	)
)
