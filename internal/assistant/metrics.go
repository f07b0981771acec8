package assistant

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

const tracerName = "crm.assistant"

var tracer = otel.Tracer(tracerName)

// Loop terminal states.
const (
	stateDone                 = "done"
	stateBudgetExhausted      = "budget_exhausted"
	stateConfirmationRequired = "confirmation_required"
	stateFailed               = "failed"
)

var (
	// oracleCalls counts oracle round trips by status ("success", "error").
	oracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "assistant",
			Name:      "oracle_calls_total",
			Help:      "Oracle round trips made by the agent loop.",
		},
		[]string{"status"},
	)

	oracleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crm",
			Subsystem: "assistant",
			Name:      "oracle_call_duration_seconds",
			Help:      "Duration of oracle round trips in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	// toolDispatches counts tool executions.
	//
	// Labels:
	//   - tool: catalog name
	//   - tier: read, write_low, write_high
	//   - outcome: success, error, gated
	toolDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "assistant",
			Name:      "tool_dispatches_total",
			Help:      "Tool calls handled by the agent loop and confirmation gate.",
		},
		[]string{"tool", "tier", "outcome"},
	)

	// confirmations counts confirmation gate transitions by outcome
	// ("requested", "confirmed", "cancelled", "rejected").
	confirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "assistant",
			Name:      "confirmations_total",
			Help:      "Confirmation gate transitions.",
		},
		[]string{"outcome"},
	)

	loopTerminations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "assistant",
			Name:      "loop_terminations_total",
			Help:      "Agent loop runs by terminal state.",
		},
		[]string{"state"},
	)
)
