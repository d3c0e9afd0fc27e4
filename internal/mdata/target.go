package mdata

import "strings"

// TargetType names the structural type of a computation target.
type TargetType string

const (
	// TargetTypePortfolio identifies portfolio-level targets.
	TargetTypePortfolio TargetType = "PORTFOLIO"
	// TargetTypePosition identifies position-level targets.
	TargetTypePosition TargetType = "POSITION"
	// TargetTypeTrade identifies trade-level targets.
	TargetTypeTrade TargetType = "TRADE"
	// TargetTypeSecurity identifies security-level targets.
	TargetTypeSecurity TargetType = "SECURITY"
	// TargetTypeCurrency identifies currency-level targets (curves, surfaces).
	TargetTypeCurrency TargetType = "CURRENCY"
	// TargetTypePrimitive identifies raw market-data primitives.
	TargetTypePrimitive TargetType = "PRIMITIVE"
)

// TargetReference identifies the target of a value requirement. References
// may nest (a position reference carries its parent portfolio node);
// resolution only relies on identity equality, never traversal.
type TargetReference struct {
	Type     TargetType
	UniqueID string
	Parent   *TargetReference
}

// Equal reports identity equality over the full reference chain.
func (r TargetReference) Equal(o TargetReference) bool {
	if r.Type != o.Type || r.UniqueID != o.UniqueID {
		return false
	}
	switch {
	case r.Parent == nil && o.Parent == nil:
		return true
	case r.Parent == nil || o.Parent == nil:
		return false
	default:
		return r.Parent.Equal(*o.Parent)
	}
}

// Specification collapses the reference to its concrete target identity.
func (r TargetReference) Specification() TargetSpecification {
	return TargetSpecification{Type: r.Type, UniqueID: r.UniqueID}
}

func (r TargetReference) String() string {
	var sb strings.Builder
	sb.WriteString(string(r.Type))
	sb.WriteByte('~')
	sb.WriteString(r.UniqueID)
	if r.Parent != nil {
		sb.WriteByte('<')
		sb.WriteString(r.Parent.String())
	}
	return sb.String()
}

// TargetSpecification is the resolved identity of a produced value's target.
type TargetSpecification struct {
	Type     TargetType
	UniqueID string
}

func (s TargetSpecification) String() string {
	return string(s.Type) + "~" + s.UniqueID
}
