package normalization

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	instruments []string
	ticks       []Tick
}

func (s *recordingSink) accept(instrument string, tick Tick) {
	s.instruments = append(s.instruments, instrument)
	s.ticks = append(s.ticks, tick)
}

type failingRule struct{}

func (failingRule) Name() string { return "FailingRule" }
func (failingRule) Apply(string, Tick, History) (Tick, bool, error) {
	return Tick{}, false, errors.New("boom")
}

type countingRule struct {
	calls int
}

func (r *countingRule) Name() string { return "CountingRule" }
func (r *countingRule) Apply(_ string, tick Tick, _ History) (Tick, bool, error) {
	r.calls++
	return tick, true, nil
}

func TestPipelineForwardsAndUpdatesHistory(t *testing.T) {
	sink := new(recordingSink)
	set := NewRuleSet("bloomberg", NewFieldFilter(FieldPxLast), NewImpliedVolatilityCalculator())
	pipeline := NewPipeline(set, sink.accept, nil)
	pipeline.Subscribe("AAPL")

	out, ok := pipeline.Process("AAPL", NewTick(
		Field{Name: FieldPxLast, Value: d("100")},
		Field{Name: FieldPxBid, Value: d("99")},
	))
	require.True(t, ok)
	require.Equal(t, 1, out.Len())
	require.Len(t, sink.ticks, 1)

	history, found := pipeline.History("AAPL")
	require.True(t, found)
	last, found := history.LastKnown(FieldPxLast)
	require.True(t, found)
	value, _ := DecimalValue(last)
	require.True(t, value.Equal(d("100")))
}

func TestExtinguishStopsChainAndSkipsHistory(t *testing.T) {
	counting := new(countingRule)
	set := NewRuleSet("empty-filter", NewFieldFilter(), counting)
	pipeline := NewPipeline(set, nil, nil)
	pipeline.Subscribe("AAPL")

	_, ok := pipeline.Process("AAPL", NewTick(Field{Name: FieldPxLast, Value: d("100")}))
	require.False(t, ok)
	require.Zero(t, counting.calls, "rules after an extinguish must not run")

	history, found := pipeline.History("AAPL")
	require.True(t, found)
	_, found = history.LastKnown(FieldPxLast)
	require.False(t, found, "history must not be updated for extinguished ticks")
}

func TestRuleErrorExtinguishesAndProcessingContinues(t *testing.T) {
	sink := new(recordingSink)
	pipeline := NewPipeline(NewRuleSet("failing", failingRule{}), sink.accept, nil)
	pipeline.Subscribe("AAPL")

	_, ok := pipeline.Process("AAPL", NewTick(Field{Name: FieldPxLast, Value: d("100")}))
	require.False(t, ok)
	require.Empty(t, sink.ticks)

	// Subsequent ticks keep flowing through the pipeline.
	_, ok = pipeline.Process("AAPL", NewTick(Field{Name: FieldPxLast, Value: d("101")}))
	require.False(t, ok)
}

func TestUnsubscribedInstrumentDropsTicks(t *testing.T) {
	pipeline := NewPipeline(NewRuleSet("noop"), nil, nil)
	pipeline.Subscribe("AAPL")
	pipeline.Unsubscribe("AAPL")

	_, ok := pipeline.Process("AAPL", NewTick(Field{Name: FieldPxLast, Value: d("100")}))
	require.False(t, ok)
	_, found := pipeline.History("AAPL")
	require.False(t, found)
}

func TestRegistryResolvesByExactID(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(NewRuleSet("bloomberg", NewFieldFilter(FieldPxLast))))
	require.NoError(t, registry.Register(NewRuleSet("reuters")))

	set, ok := registry.Resolve("bloomberg")
	require.True(t, ok)
	require.Equal(t, "bloomberg", set.ID())

	_, ok = registry.Resolve("BLOOMBERG")
	require.False(t, ok, "resolution is exact, not case-insensitive")
	_, ok = registry.Resolve("missing")
	require.False(t, ok)

	err := registry.Register(NewRuleSet("bloomberg"))
	require.Error(t, err, "duplicate ids are rejected")
}
