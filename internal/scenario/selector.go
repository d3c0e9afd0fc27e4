// Package scenario implements the selector model deciding which produced
// market-data values a what-if manipulation applies to.
package scenario

import (
	"strings"

	"github.com/quantfabric/meridian/internal/mdata"
)

// Selector decides whether a produced value specification is the target of a
// scenario manipulation. Selectors are immutable after construction and safe
// for concurrent reads.
type Selector interface {
	// FindMatchingSelector returns the distinct selector targeting the
	// specification under the named calculation configuration, if any.
	FindMatchingSelector(spec mdata.ValueSpecification, calcConfig string) (Selector, bool)
	// HasSelectionsDefined reports whether the selector targets anything at all.
	HasSelectionsDefined() bool
}

// CurveSelector is a distinct (leaf) selector matching one named curve in one
// currency. An empty calculation-configuration set matches every
// configuration.
type CurveSelector struct {
	currency    string
	curveName   string
	calcConfigs map[string]struct{}
}

// NewCurveSelector builds a leaf selector keyed by currency and curve name.
func NewCurveSelector(currency, curveName string, calcConfigs ...string) *CurveSelector {
	selector := new(CurveSelector)
	selector.currency = strings.TrimSpace(currency)
	selector.curveName = strings.TrimSpace(curveName)
	if len(calcConfigs) > 0 {
		selector.calcConfigs = make(map[string]struct{}, len(calcConfigs))
		for _, name := range calcConfigs {
			selector.calcConfigs[name] = struct{}{}
		}
	}
	return selector
}

// Currency returns the selector's currency key.
func (s *CurveSelector) Currency() string { return s.currency }

// CurveName returns the selector's curve-name key.
func (s *CurveSelector) CurveName() string { return s.curveName }

// FindMatchingSelector returns the selector itself when the specification's
// target currency and curve-name property both equal the configured key.
func (s *CurveSelector) FindMatchingSelector(spec mdata.ValueSpecification, calcConfig string) (Selector, bool) {
	if s.calcConfigs != nil {
		if _, ok := s.calcConfigs[calcConfig]; !ok {
			return nil, false
		}
	}
	if spec.Target.Type != mdata.TargetTypeCurrency || spec.Target.UniqueID != s.currency {
		return nil, false
	}
	values, wildcard, ok := spec.Properties.Values(mdata.PropertyCurve)
	if !ok || wildcard {
		return nil, false
	}
	for _, v := range values {
		if v == s.curveName {
			return s, true
		}
	}
	return nil, false
}

// HasSelectionsDefined always reports true for a leaf selector.
func (s *CurveSelector) HasSelectionsDefined() bool { return true }

// Key renders a stable identity for logging and definition lookup.
func (s *CurveSelector) Key() string {
	return s.currency + "/" + s.curveName
}

// CompositeSelector holds an ordered list of child selectors. When several
// children could match the same specification the first-registered child
// wins; registration order is the tie-break.
type CompositeSelector struct {
	children []Selector
}

// NewCompositeSelector builds a composite over the children in registration order.
func NewCompositeSelector(children ...Selector) *CompositeSelector {
	out := make([]Selector, 0, len(children))
	for _, child := range children {
		if child != nil {
			out = append(out, child)
		}
	}
	return &CompositeSelector{children: out}
}

// FindMatchingSelector returns the first child match in registration order.
func (s *CompositeSelector) FindMatchingSelector(spec mdata.ValueSpecification, calcConfig string) (Selector, bool) {
	for _, child := range s.children {
		if match, ok := child.FindMatchingSelector(spec, calcConfig); ok {
			return match, true
		}
	}
	return nil, false
}

// HasSelectionsDefined reports whether any child targets anything.
func (s *CompositeSelector) HasSelectionsDefined() bool {
	for _, child := range s.children {
		if child.HasSelectionsDefined() {
			return true
		}
	}
	return false
}
