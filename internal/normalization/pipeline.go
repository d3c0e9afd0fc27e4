package normalization

import (
	"github.com/quantfabric/meridian/internal/observability"
)

// Sink receives normalized ticks on successful completion of the rule chain.
type Sink func(instrument string, tick Tick)

// Pipeline drives one rule set over an instrument's tick stream. Each tick
// moves RECEIVED → rules in order → FORWARDED or EXTINGUISHED. Ticks for a
// single instrument must be processed in arrival order by one goroutine;
// distinct instruments may run fully in parallel.
type Pipeline struct {
	set     RuleSet
	history *HistoryStore
	sink    Sink
	metrics *PipelineMetrics
}

// NewPipeline builds a pipeline over the rule set, forwarding to sink.
func NewPipeline(set RuleSet, sink Sink, metrics *PipelineMetrics) *Pipeline {
	pipeline := new(Pipeline)
	pipeline.set = set
	pipeline.history = NewHistoryStore()
	pipeline.sink = sink
	pipeline.metrics = metrics
	return pipeline
}

// Subscribe creates the instrument's field history.
func (p *Pipeline) Subscribe(instrument string) {
	p.history.Create(instrument)
}

// Unsubscribe destroys the instrument's field history. Late ticks for the
// instrument are dropped.
func (p *Pipeline) Unsubscribe(instrument string) {
	p.history.Destroy(instrument)
}

// History exposes the instrument's read-only history view, if subscribed.
func (p *Pipeline) History(instrument string) (History, bool) {
	h := p.history.get(instrument)
	if h == nil {
		return nil, false
	}
	return h, true
}

// Process runs the tick through the rule chain. It returns the forwarded tick
// and true, or the zero tick and false when the tick was extinguished. The
// field history is updated only for forwarded ticks.
func (p *Pipeline) Process(instrument string, tick Tick) (Tick, bool) {
	history := p.history.get(instrument)
	if history == nil {
		observability.Log().Debug("tick for unsubscribed instrument dropped",
			observability.Field{Key: "instrument", Value: instrument})
		return Tick{}, false
	}

	current := tick
	for _, rule := range p.set.Rules() {
		next, ok, err := rule.Apply(instrument, current, history)
		if err != nil {
			observability.Log().Error("normalization rule failed",
				observability.Field{Key: "instrument", Value: instrument},
				observability.Field{Key: "rule", Value: rule.Name()},
				observability.Field{Key: "rule_set", Value: p.set.ID()},
				observability.Field{Key: "error", Value: err.Error()})
			p.metrics.ObserveRuleFailure(p.set.ID(), rule.Name())
			p.metrics.ObserveExtinguished(p.set.ID(), rule.Name())
			return Tick{}, false
		}
		if !ok {
			p.metrics.ObserveExtinguished(p.set.ID(), rule.Name())
			return Tick{}, false
		}
		current = next
	}

	history.update(current)
	p.metrics.ObserveForwarded(p.set.ID())
	if p.sink != nil {
		p.sink(instrument, current)
	}
	return current, true
}
