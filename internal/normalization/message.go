// Package normalization transforms raw instrument ticks through an ordered
// rule chain before they are forwarded to subscribers.
package normalization

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/quantfabric/meridian/errs"
)

// Standard tick field names exchanged with upstream feeds.
const (
	FieldPxLast         = "PX_LAST"
	FieldPxBid          = "PX_BID"
	FieldPxAsk          = "PX_ASK"
	FieldImpliedVol     = "IMPLIED_VOLATILITY"
	FieldBestImpliedVol = "BEST_IMPLIED_VOLATILITY"
	FieldMidImpliedVol  = "MID_IMPLIED_VOLATILITY"
	FieldLastImpliedVol = "LAST_IMPLIED_VOLATILITY"
	FieldBidImpliedVol  = "BID_IMPLIED_VOLATILITY"
	FieldAskImpliedVol  = "ASK_IMPLIED_VOLATILITY"
)

// Field is one named tick entry. Values are decimals for numeric fields and
// strings otherwise.
type Field struct {
	Name  string
	Value any
}

// Tick is an ordered sequence of named fields. Duplicate names are permitted
// and preserved in order. Ticks are treated as immutable values: rules build
// new ticks rather than mutating in place.
type Tick struct {
	fields []Field
}

// NewTick builds a tick from the provided fields.
func NewTick(fields ...Field) Tick {
	out := make([]Field, len(fields))
	copy(out, fields)
	return Tick{fields: out}
}

// Len reports the number of fields, counting duplicates.
func (t Tick) Len() int {
	return len(t.fields)
}

// Fields returns a copy of the ordered field sequence.
func (t Tick) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Value returns the first occurrence of the named field.
func (t Tick) Value(name string) (any, bool) {
	for _, f := range t.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Decimal returns the first occurrence of the named field as a decimal.
func (t Tick) Decimal(name string) (decimal.Decimal, bool) {
	v, ok := t.Value(name)
	if !ok {
		return decimal.Decimal{}, false
	}
	return DecimalValue(v)
}

// Append returns a new tick with the field appended.
func (t Tick) Append(name string, value any) Tick {
	fields := make([]Field, 0, len(t.fields)+1)
	fields = append(fields, t.fields...)
	fields = append(fields, Field{Name: name, Value: value})
	return Tick{fields: fields}
}

// Map applies fn to every field in order, building a new tick. Returning
// false from fn drops the field.
func (t Tick) Map(fn func(Field) (Field, bool)) Tick {
	fields := make([]Field, 0, len(t.fields))
	for _, f := range t.fields {
		out, keep := fn(f)
		if keep {
			fields = append(fields, out)
		}
	}
	return Tick{fields: fields}
}

// DecimalValue coerces a field value to a decimal when it is numeric.
func DecimalValue(v any) (decimal.Decimal, bool) {
	switch value := v.(type) {
	case decimal.Decimal:
		return value, true
	case float64:
		return decimal.NewFromFloat(value), true
	case float32:
		return decimal.NewFromFloat32(value), true
	case int:
		return decimal.NewFromInt(int64(value)), true
	case int64:
		return decimal.NewFromInt(value), true
	case json.Number:
		d, err := decimal.NewFromString(value.String())
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

type wireField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// MarshalJSON renders the tick as an ordered field array, preserving
// duplicates.
func (t Tick) MarshalJSON() ([]byte, error) {
	fields := make([]wireField, len(t.fields))
	for i, f := range t.fields {
		value := f.Value
		if d, ok := f.Value.(decimal.Decimal); ok {
			value = d.String()
		}
		fields[i] = wireField{Name: f.Name, Value: value}
	}
	return json.Marshal(fields)
}

// UnmarshalJSON parses an ordered field array. Numeric values decode as
// decimals; everything else stays a string.
func (t *Tick) UnmarshalJSON(data []byte) error {
	var fields []wireField
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return errs.New("normalization/tick", errs.CodeInvalid,
			errs.WithMessage("decode tick fields"), errs.WithCause(err))
	}
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return errs.New("normalization/tick", errs.CodeInvalid,
				errs.WithMessage("tick field requires a name"))
		}
		value := f.Value
		if num, ok := f.Value.(json.Number); ok {
			if d, err := decimal.NewFromString(num.String()); err == nil {
				value = d
			}
		}
		out = append(out, Field{Name: f.Name, Value: value})
	}
	t.fields = out
	return nil
}
