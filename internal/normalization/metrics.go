package normalization

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics tracks tick outcomes per rule set.
type PipelineMetrics struct {
	forwarded    *prometheus.CounterVec
	extinguished *prometheus.CounterVec
	ruleFailures *prometheus.CounterVec
}

// NewPipelineMetrics constructs and registers pipeline metrics with the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PipelineMetrics{
		forwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{ //nolint:exhaustruct
				Namespace: "meridian",
				Subsystem: "normalization",
				Name:      "ticks_forwarded_total",
				Help:      "Ticks that completed the rule chain and were forwarded.",
			},
			[]string{"rule_set"},
		),
		extinguished: prometheus.NewCounterVec(
			prometheus.CounterOpts{ //nolint:exhaustruct
				Namespace: "meridian",
				Subsystem: "normalization",
				Name:      "ticks_extinguished_total",
				Help:      "Ticks dropped by a rule before forwarding.",
			},
			[]string{"rule_set", "rule"},
		),
		ruleFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{ //nolint:exhaustruct
				Namespace: "meridian",
				Subsystem: "normalization",
				Name:      "rule_failures_total",
				Help:      "Rule invocations that returned an error.",
			},
			[]string{"rule_set", "rule"},
		),
	}
	reg.MustRegister(m.forwarded, m.extinguished, m.ruleFailures)
	return m
}

// ObserveForwarded records a forwarded tick.
func (m *PipelineMetrics) ObserveForwarded(ruleSet string) {
	if m == nil {
		return
	}
	m.forwarded.WithLabelValues(ruleSet).Inc()
}

// ObserveExtinguished records a dropped tick at the named rule.
func (m *PipelineMetrics) ObserveExtinguished(ruleSet, rule string) {
	if m == nil {
		return
	}
	m.extinguished.WithLabelValues(ruleSet, rule).Inc()
}

// ObserveRuleFailure records a rule error.
func (m *PipelineMetrics) ObserveRuleFailure(ruleSet, rule string) {
	if m == nil {
		return
	}
	m.ruleFailures.WithLabelValues(ruleSet, rule).Inc()
}
