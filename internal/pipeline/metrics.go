package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spice_talk",
		Subsystem: "pipeline",
		Name:      "resolved_total",
		Help:      "Questions answered, by the strategy that produced the response",
	}, []string{"strategy"})

	rejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spice_talk",
		Subsystem: "pipeline",
		Name:      "validation_rejections_total",
		Help:      "Model answers rejected by the validation gate, by reason",
	}, []string{"reason"})

	substitutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spice_talk",
		Subsystem: "pipeline",
		Name:      "accuracy_substitutions_total",
		Help:      "Model answers replaced because their number disagreed with the computed value",
	})

	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spice_talk",
		Subsystem: "pipeline",
		Name:      "tool_calls_total",
		Help:      "Function calls requested by the model, by function and outcome",
	}, []string{"function", "outcome"})

	resolveLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spice_talk",
		Subsystem: "pipeline",
		Name:      "resolve_seconds",
		Help:      "Time to answer a question, by strategy",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"strategy"})
)
