package metrics

import "github.com/prometheus/client_golang/prometheus"

// upstreamCollectors cover calls to the model and the broker. The api and the
// worker each register their own copy.
type upstreamCollectors struct {
	summaries *prometheus.CounterVec
	tokens    *prometheus.CounterVec
	breakers  *prometheus.GaugeVec
}

func newUpstreamCollectors() *upstreamCollectors {
	return &upstreamCollectors{
		summaries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "summaries",
				Name:      "total",
				Help:      "Model summary runs by status.",
			},
			[]string{"service", "status"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "tokens_total",
				Help:      "Token usage reported by the model by direction.",
			},
			[]string{"service", "direction", "model"},
		),
		breakers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state per operation: 0 closed, 1 half-open, 2 open.",
			},
			[]string{"service", "operation"},
		),
	}
}

func (c *upstreamCollectors) register(registry *prometheus.Registry) {
	registry.MustRegister(c.summaries, c.tokens, c.breakers)
}

func (c *upstreamCollectors) recordSummary(service, model string, promptTokens, completionTokens int, err error) {
	c.summaries.WithLabelValues(service, statusOf(err)).Inc()
	if err != nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	if promptTokens > 0 {
		c.tokens.WithLabelValues(service, "in", model).Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		c.tokens.WithLabelValues(service, "out", model).Add(float64(completionTokens))
	}
}

func (c *upstreamCollectors) setBreakerState(service, operation string, state int) {
	c.breakers.WithLabelValues(service, operation).Set(float64(state))
}
