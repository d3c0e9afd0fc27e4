package normalization

import "github.com/shopspring/decimal"

// UnitChange multiplies named numeric fields by a fixed factor, typically to
// convert quoted units (e.g. cents to dollars). Absent or non-numeric fields
// are untouched; the rule never extinguishes.
type UnitChange struct {
	fields     map[string]struct{}
	multiplier decimal.Decimal
}

// NewUnitChange builds a unit conversion over the named fields.
func NewUnitChange(multiplier decimal.Decimal, fields ...string) *UnitChange {
	rule := new(UnitChange)
	rule.multiplier = multiplier
	rule.fields = make(map[string]struct{}, len(fields))
	for _, name := range fields {
		rule.fields[name] = struct{}{}
	}
	return rule
}

// Name identifies the rule in logs.
func (r *UnitChange) Name() string { return "UnitChange" }

// Apply rescales matching numeric fields.
func (r *UnitChange) Apply(_ string, tick Tick, _ History) (Tick, bool, error) {
	out := tick.Map(func(field Field) (Field, bool) {
		if _, watch := r.fields[field.Name]; !watch {
			return field, true
		}
		value, numeric := DecimalValue(field.Value)
		if !numeric {
			return field, true
		}
		field.Value = value.Mul(r.multiplier)
		return field, true
	})
	return out, true, nil
}
