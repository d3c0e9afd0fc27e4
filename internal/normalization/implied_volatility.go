package normalization

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)

// ImpliedVolatilityCalculator derives a single IMPLIED_VOLATILITY field from
// the best available source, in priority order: best, mid, last, bid/ask
// average (both legs required), then the last forwarded value from history.
// When no source is available the tick passes through unchanged. The rule
// never extinguishes.
type ImpliedVolatilityCalculator struct{}

// NewImpliedVolatilityCalculator builds the derivation rule.
func NewImpliedVolatilityCalculator() *ImpliedVolatilityCalculator {
	return &ImpliedVolatilityCalculator{}
}

// Name identifies the rule in logs.
func (r *ImpliedVolatilityCalculator) Name() string { return "ImpliedVolatilityCalculator" }

// Apply appends the derived IMPLIED_VOLATILITY field when a source exists.
func (r *ImpliedVolatilityCalculator) Apply(_ string, tick Tick, history History) (Tick, bool, error) {
	if value, ok := r.derive(tick, history); ok {
		return tick.Append(FieldImpliedVol, value), true, nil
	}
	return tick, true, nil
}

func (r *ImpliedVolatilityCalculator) derive(tick Tick, history History) (decimal.Decimal, bool) {
	for _, source := range []string{FieldBestImpliedVol, FieldMidImpliedVol, FieldLastImpliedVol} {
		if value, ok := tick.Decimal(source); ok {
			return value, true
		}
	}
	bid, bidOK := tick.Decimal(FieldBidImpliedVol)
	ask, askOK := tick.Decimal(FieldAskImpliedVol)
	if bidOK && askOK {
		return bid.Add(ask).Div(two), true
	}
	if history != nil {
		if last, ok := history.LastKnown(FieldImpliedVol); ok {
			if value, numeric := DecimalValue(last); numeric {
				return value, true
			}
		}
	}
	return decimal.Decimal{}, false
}
