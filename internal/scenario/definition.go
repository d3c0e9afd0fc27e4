package scenario

import (
	"strings"

	"github.com/quantfabric/meridian/internal/mdata"
)

// ShiftType names how a manipulation perturbs the selected values.
type ShiftType string

const (
	// ShiftAbsolute adds the shift amount to the selected value.
	ShiftAbsolute ShiftType = "Absolute"
	// ShiftRelative scales the selected value by (1 + amount).
	ShiftRelative ShiftType = "Relative"
)

// Parameters carries the opaque manipulation parameters attached to a
// selector. The engine passes them through to the manipulation layer without
// interpreting them.
type Parameters map[string]any

type selection struct {
	selector *CurveSelector
	params   Parameters
}

// Definition is an immutable named scenario: an ordered set of distinct
// selectors, each mapped to its manipulation parameters. Built once, queried
// per value specification during a computation cycle, never mutated.
type Definition struct {
	name       string
	selections []selection
}

// NewDefinition builds a definition from selector/parameter pairs in
// registration order.
func NewDefinition(name string, pairs ...DefinitionEntry) *Definition {
	def := new(Definition)
	def.name = strings.TrimSpace(name)
	def.selections = make([]selection, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Selector == nil {
			continue
		}
		params := make(Parameters, len(pair.Params))
		for k, v := range pair.Params {
			params[k] = v
		}
		def.selections = append(def.selections, selection{selector: pair.Selector, params: params})
	}
	return def
}

// DefinitionEntry pairs a distinct selector with its manipulation parameters.
type DefinitionEntry struct {
	Selector *CurveSelector
	Params   Parameters
}

// Name returns the scenario name.
func (d *Definition) Name() string { return d.name }

// Create returns the definition itself: a plain definition carries no further
// templating to expand.
func (d *Definition) Create(_ Parameters) *Definition { return d }

// Selector returns a composite over the definition's selectors in
// registration order.
func (d *Definition) Selector() Selector {
	children := make([]Selector, 0, len(d.selections))
	for _, sel := range d.selections {
		children = append(children, sel.selector)
	}
	return NewCompositeSelector(children...)
}

// ParametersFor returns the manipulation parameters of the first selector
// matching the specification, if any.
func (d *Definition) ParametersFor(spec mdata.ValueSpecification, calcConfig string) (Parameters, bool) {
	for _, sel := range d.selections {
		if _, ok := sel.selector.FindMatchingSelector(spec, calcConfig); ok {
			out := make(Parameters, len(sel.params))
			for k, v := range sel.params {
				out[k] = v
			}
			return out, true
		}
	}
	return nil, false
}

// Size reports the number of selections defined.
func (d *Definition) Size() int { return len(d.selections) }
