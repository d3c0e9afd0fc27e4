package normalization

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	out, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return out
}

func TestFieldFilterKeepsOrderAndDuplicates(t *testing.T) {
	filter := NewFieldFilter(FieldPxLast, FieldPxBid)
	tick := NewTick(
		Field{Name: FieldPxLast, Value: d("100")},
		Field{Name: FieldPxAsk, Value: d("101")},
		Field{Name: FieldPxBid, Value: d("99")},
		Field{Name: FieldPxLast, Value: d("100.5")},
	)

	out, ok, err := filter.Apply("AAPL", tick, nil)
	require.NoError(t, err)
	require.True(t, ok)
	fields := out.Fields()
	require.Len(t, fields, 3)
	require.Equal(t, FieldPxLast, fields[0].Name)
	require.Equal(t, FieldPxBid, fields[1].Name)
	require.Equal(t, FieldPxLast, fields[2].Name)
}

func TestFieldFilterIdempotence(t *testing.T) {
	filter := NewFieldFilter(FieldPxLast)
	tick := NewTick(
		Field{Name: FieldPxLast, Value: d("100")},
		Field{Name: FieldPxBid, Value: d("99")},
	)

	once, ok, err := filter.Apply("AAPL", tick, nil)
	require.NoError(t, err)
	require.True(t, ok)
	twice, ok, err := filter.Apply("AAPL", once, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, once.Fields(), twice.Fields())
}

func TestFieldFilterEmptyResultExtinguishes(t *testing.T) {
	filter := NewFieldFilter()
	tick := NewTick(Field{Name: FieldPxLast, Value: d("100")})

	_, ok, err := filter.Apply("AAPL", tick, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFieldNameChange(t *testing.T) {
	rename := NewFieldNameChange("LAST_PRICE", FieldPxLast)
	tick := NewTick(
		Field{Name: "LAST_PRICE", Value: d("42")},
		Field{Name: FieldPxBid, Value: d("41")},
	)

	out, ok, err := rename.Apply("AAPL", tick, nil)
	require.NoError(t, err)
	require.True(t, ok)
	value, found := out.Decimal(FieldPxLast)
	require.True(t, found)
	require.True(t, value.Equal(d("42")))
	_, found = out.Value("LAST_PRICE")
	require.False(t, found)

	// Absent source field is a no-op.
	unchanged, ok, err := rename.Apply("AAPL", out, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, out.Fields(), unchanged.Fields())
}

func TestUnitChangeRescalesNumericFields(t *testing.T) {
	rule := NewUnitChange(d("0.01"), FieldPxLast)

	out, ok, err := rule.Apply("AAPL", NewTick(Field{Name: FieldPxLast, Value: d("10050")}), nil)
	require.NoError(t, err)
	require.True(t, ok)
	value, found := out.Decimal(FieldPxLast)
	require.True(t, found)
	require.True(t, value.Equal(d("100.5")), "got %s", value)

	// Fields outside the watch list are untouched.
	other, ok, err := rule.Apply("AAPL", NewTick(Field{Name: FieldPxBid, Value: d("99")}), nil)
	require.NoError(t, err)
	require.True(t, ok)
	value, found = other.Decimal(FieldPxBid)
	require.True(t, found)
	require.True(t, value.Equal(d("99")))

	// Non-numeric values pass through unmodified.
	str, ok, err := rule.Apply("AAPL", NewTick(Field{Name: FieldPxLast, Value: "n/a"}), nil)
	require.NoError(t, err)
	require.True(t, ok)
	raw, _ := str.Value(FieldPxLast)
	require.Equal(t, "n/a", raw)
}

func TestImpliedVolatilityPriority(t *testing.T) {
	rule := NewImpliedVolatilityCalculator()

	// Bid/ask average when no higher-priority source exists.
	tick := NewTick(
		Field{Name: FieldBidImpliedVol, Value: d("0.18")},
		Field{Name: FieldAskImpliedVol, Value: d("0.22")},
	)
	out, ok, err := rule.Apply("AAPL", tick, nil)
	require.NoError(t, err)
	require.True(t, ok)
	value, found := out.Decimal(FieldImpliedVol)
	require.True(t, found)
	require.True(t, value.Equal(d("0.20")), "got %s", value)

	// Best beats everything.
	tick = NewTick(
		Field{Name: FieldBestImpliedVol, Value: d("0.30")},
		Field{Name: FieldMidImpliedVol, Value: d("0.25")},
		Field{Name: FieldBidImpliedVol, Value: d("0.18")},
		Field{Name: FieldAskImpliedVol, Value: d("0.22")},
	)
	out, _, err = rule.Apply("AAPL", tick, nil)
	require.NoError(t, err)
	value, _ = out.Decimal(FieldImpliedVol)
	require.True(t, value.Equal(d("0.30")))

	// One-sided market does not average.
	tick = NewTick(Field{Name: FieldBidImpliedVol, Value: d("0.18")})
	out, ok, err = rule.Apply("AAPL", tick, nil)
	require.NoError(t, err)
	require.True(t, ok)
	_, found = out.Value(FieldImpliedVol)
	require.False(t, found)
}

func TestImpliedVolatilityHistoryFallback(t *testing.T) {
	rule := NewImpliedVolatilityCalculator()
	history := newFieldHistory()
	history.update(NewTick(Field{Name: FieldImpliedVol, Value: d("0.27")}))

	out, ok, err := rule.Apply("AAPL", NewTick(Field{Name: FieldPxLast, Value: d("100")}), history)
	require.NoError(t, err)
	require.True(t, ok)
	value, found := out.Decimal(FieldImpliedVol)
	require.True(t, found)
	require.True(t, value.Equal(d("0.27")))
}

type staticRuleProvider struct {
	rule Rule
	err  error
}

func (p staticRuleProvider) RuleFor(string) (Rule, error) {
	return p.rule, p.err
}

func TestSecurityRuleApplierPassThroughWithoutRule(t *testing.T) {
	applier := NewSecurityRuleApplier(staticRuleProvider{rule: nil, err: nil})
	tick := NewTick(Field{Name: FieldPxLast, Value: d("100")})

	out, ok, err := applier.Apply("AAPL", tick, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, tick.Fields(), out.Fields())
}

func TestSecurityRuleApplierProviderErrorExtinguishes(t *testing.T) {
	applier := NewSecurityRuleApplier(staticRuleProvider{rule: nil, err: errors.New("lookup failed")})

	_, ok, err := applier.Apply("AAPL", NewTick(Field{Name: FieldPxLast, Value: d("100")}), nil)
	require.Error(t, err)
	require.False(t, ok)
}

func TestSecurityRuleApplierDelegates(t *testing.T) {
	applier := NewSecurityRuleApplier(staticRuleProvider{rule: NewFieldNameChange(FieldPxLast, "CLEAN_PRICE"), err: nil})

	out, ok, err := applier.Apply("AAPL", NewTick(Field{Name: FieldPxLast, Value: d("100")}), nil)
	require.NoError(t, err)
	require.True(t, ok)
	_, found := out.Value("CLEAN_PRICE")
	require.True(t, found)
}
