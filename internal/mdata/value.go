package mdata

import "strings"

// Common value names exchanged between the engine and producers.
const (
	// ValueNameMarketValue is the primary market value of a target.
	ValueNameMarketValue = "Market_Value"
	// ValueNamePresentValue is the discounted present value of a target.
	ValueNamePresentValue = "Present_Value"
	// ValueNameYieldCurve identifies a constructed yield curve.
	ValueNameYieldCurve = "YieldCurve"
)

// Well-known property names attached to requirements and specifications.
const (
	// PropertyCurve names the curve a value was produced from.
	PropertyCurve = "Curve"
	// PropertyCurrency names the currency of a produced value.
	PropertyCurrency = "Currency"
	// PropertyFunction names the producing function.
	PropertyFunction = "Function"
)

// ValueRequirement is a request for a named value on a target, qualified by
// property constraints.
type ValueRequirement struct {
	ValueName   string
	Target      TargetReference
	Constraints Properties
}

// NewRequirement constructs a requirement with no property constraints.
func NewRequirement(valueName string, target TargetReference) ValueRequirement {
	return ValueRequirement{ValueName: valueName, Target: target, Constraints: NoneProperties()}
}

// IsSatisfiedBy reports whether the produced specification satisfies this
// requirement: same value name, same target identity, and constraint
// satisfaction under the property lattice.
func (r ValueRequirement) IsSatisfiedBy(spec ValueSpecification) bool {
	if r.ValueName != spec.ValueName {
		return false
	}
	if r.Target.Specification() != spec.Target {
		return false
	}
	return Satisfies(r.Constraints, spec.Properties)
}

func (r ValueRequirement) String() string {
	return r.ValueName + " on " + r.Target.String() + " " + r.Constraints.Key()
}

// ValueSpecification is the concrete identity of a value actually produced:
// value name, resolved target, and fully-resolved properties. Immutable and
// compared structurally.
type ValueSpecification struct {
	ValueName  string
	Target     TargetSpecification
	Properties Properties
}

// NewSpecification constructs a specification over the given target.
func NewSpecification(valueName string, target TargetSpecification, properties Properties) ValueSpecification {
	return ValueSpecification{ValueName: valueName, Target: target, Properties: properties}
}

// Equal reports structural equality.
func (s ValueSpecification) Equal(o ValueSpecification) bool {
	return s.ValueName == o.ValueName && s.Target == o.Target && s.Properties.Equal(o.Properties)
}

// Key renders a canonical string identity usable as a map key.
func (s ValueSpecification) Key() string {
	var sb strings.Builder
	sb.WriteString(s.ValueName)
	sb.WriteByte('|')
	sb.WriteString(s.Target.String())
	sb.WriteByte('|')
	sb.WriteString(s.Properties.Key())
	return sb.String()
}

func (s ValueSpecification) String() string {
	return s.ValueName + " on " + s.Target.String() + " " + s.Properties.Key()
}
