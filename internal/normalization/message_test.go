package normalization

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestTickJSONPreservesOrderAndDuplicates(t *testing.T) {
	tick := NewTick(
		Field{Name: FieldPxLast, Value: d("100.5")},
		Field{Name: "VENUE", Value: "XNAS"},
		Field{Name: FieldPxLast, Value: d("100.75")},
	)

	data, err := json.Marshal(tick)
	require.NoError(t, err)

	var decoded Tick
	require.NoError(t, json.Unmarshal(data, &decoded))
	fields := decoded.Fields()
	require.Len(t, fields, 3)
	require.Equal(t, FieldPxLast, fields[0].Name)
	require.Equal(t, "VENUE", fields[1].Name)
	require.Equal(t, FieldPxLast, fields[2].Name)

	first, ok := decoded.Decimal(FieldPxLast)
	require.True(t, ok)
	require.True(t, first.Equal(d("100.5")))
	venue, _ := decoded.Value("VENUE")
	require.Equal(t, "XNAS", venue)
}

func TestTickUnmarshalRejectsUnnamedFields(t *testing.T) {
	var tick Tick
	err := json.Unmarshal([]byte(`[{"name":"  ","value":1}]`), &tick)
	require.Error(t, err)
}

func TestTickImmutabilityHelpers(t *testing.T) {
	tick := NewTick(Field{Name: FieldPxLast, Value: d("100")})
	appended := tick.Append(FieldPxBid, d("99"))
	require.Equal(t, 1, tick.Len())
	require.Equal(t, 2, appended.Len())

	fields := tick.Fields()
	fields[0].Name = "MUTATED"
	_, ok := tick.Value(FieldPxLast)
	require.True(t, ok, "Fields must return a defensive copy")
}
