package feed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantfabric/meridian/internal/normalization"
)

func newTestPipeline(t *testing.T, sink normalization.Sink) *normalization.Pipeline {
	t.Helper()
	return normalization.NewPipeline(normalization.NewRuleSet("passthrough"), sink, nil)
}

func TestManagerSubscriptionLifecycle(t *testing.T) {
	var forwarded int
	pipeline := newTestPipeline(t, func(string, normalization.Tick) { forwarded++ })
	m := NewManager(pipeline)

	first, err := m.Subscribe("AAPL")
	require.NoError(t, err)
	second, err := m.Subscribe("AAPL")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, 2, m.SubscriberCount("AAPL"))

	tick := normalization.NewTick(normalization.Field{Name: normalization.FieldPxLast, Value: 100.0})
	m.Dispatch("AAPL", tick)
	require.Equal(t, 1, forwarded)

	require.NoError(t, m.Unsubscribe(first))
	m.Dispatch("AAPL", tick)
	require.Equal(t, 2, forwarded, "one remaining claim keeps the stream alive")

	require.NoError(t, m.Unsubscribe(second))
	require.Equal(t, 0, m.SubscriberCount("AAPL"))
	m.Dispatch("AAPL", tick)
	require.Equal(t, 2, forwarded, "ticks after the last release are dropped")
}

func TestManagerRejectsEmptyInstrument(t *testing.T) {
	m := NewManager(newTestPipeline(t, nil))
	_, err := m.Subscribe("")
	require.Error(t, err)
}

func TestManagerUnsubscribeUnknownHandle(t *testing.T) {
	m := NewManager(newTestPipeline(t, nil))
	sub, err := m.Subscribe("AAPL")
	require.NoError(t, err)
	require.NoError(t, m.Unsubscribe(sub))
	require.Error(t, m.Unsubscribe(sub), "double release must fail")
}

func TestDecodeEnvelope(t *testing.T) {
	data := []byte(`{"instrument":"AAPL","fields":[{"name":"PX_LAST","value":101.5}]}`)
	instrument, tick, err := decodeEnvelope(data)
	require.NoError(t, err)
	require.Equal(t, "AAPL", instrument)
	require.Equal(t, 1, tick.Len())
	v, ok := tick.Decimal(normalization.FieldPxLast)
	require.True(t, ok)
	require.Equal(t, "101.5", v.String())
}

func TestDecodeEnvelopeRejectsMissingInstrument(t *testing.T) {
	_, _, err := decodeEnvelope([]byte(`{"fields":[]}`))
	require.Error(t, err)
}
