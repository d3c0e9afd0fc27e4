// Package mdata defines the canonical market-data value identities and the
// property constraint lattice used to match produced values against
// requirements.
package mdata

import (
	"sort"
	"strings"
)

// propertyEntry is one constraint attached to a property name. A nil values
// slice with wildcard set means the property accepts (or offers) any value.
type propertyEntry struct {
	values   []string
	wildcard bool
	optional bool
}

func (e propertyEntry) clone() propertyEntry {
	out := e
	if e.values != nil {
		out.values = make([]string, len(e.values))
		copy(out.values, e.values)
	}
	return out
}

// Properties is an immutable set of named property constraints. Each name
// maps to either a finite non-empty set of values or a wildcard, and carries
// an optional flag. Built via BuildProperties; shared freely once built.
type Properties struct {
	all     bool
	entries map[string]propertyEntry
}

// NoneProperties returns the empty property set. As a requirement it
// constrains nothing; as an offer it offers no properties.
func NoneProperties() Properties {
	return Properties{all: false, entries: nil}
}

// AllProperties returns the infinite property set. It is an offer-side
// concept: every property asked of it behaves as a wildcard.
func AllProperties() Properties {
	return Properties{all: true, entries: nil}
}

// IsNone reports whether the set carries no property constraints.
func (p Properties) IsNone() bool {
	return !p.all && len(p.entries) == 0
}

// IsAll reports whether the set is the infinite offer.
func (p Properties) IsAll() bool {
	return p.all
}

// Names returns the constrained property names in sorted order.
func (p Properties) Names() []string {
	if len(p.entries) == 0 {
		return nil
	}
	names := make([]string, 0, len(p.entries))
	for name := range p.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns the allowed values for the property. A wildcard constraint
// yields (nil, true, true); an absent property yields (nil, false, false).
func (p Properties) Values(name string) (values []string, wildcard bool, ok bool) {
	if p.all {
		return nil, true, true
	}
	e, found := p.entries[name]
	if !found {
		return nil, false, false
	}
	if e.wildcard {
		return nil, true, true
	}
	out := make([]string, len(e.values))
	copy(out, e.values)
	return out, false, true
}

// IsOptional reports whether the named constraint is marked optional.
func (p Properties) IsOptional(name string) bool {
	e, found := p.entries[name]
	return found && e.optional
}

// Satisfies reports whether the offer can meet every concrete constraint of
// the requirement. Pure and total: no input combination is an error.
func Satisfies(requirement, offer Properties) bool {
	if requirement.all {
		// ALL is an offer-side concept; as a requirement every property
		// behaves as a wildcard and is trivially satisfied.
		return true
	}
	for name, req := range requirement.entries {
		if req.wildcard {
			continue
		}
		if offer.all {
			continue
		}
		off, present := offer.entries[name]
		if !present {
			if req.optional {
				continue
			}
			return false
		}
		if off.wildcard {
			continue
		}
		if !intersects(req.values, off.values) {
			return false
		}
	}
	return true
}

// Equal reports structural equality of two property sets.
func (p Properties) Equal(o Properties) bool {
	if p.all != o.all {
		return false
	}
	if len(p.entries) != len(o.entries) {
		return false
	}
	for name, e := range p.entries {
		oe, ok := o.entries[name]
		if !ok {
			return false
		}
		if e.wildcard != oe.wildcard || e.optional != oe.optional {
			return false
		}
		if len(e.values) != len(oe.values) {
			return false
		}
		for i := range e.values {
			if e.values[i] != oe.values[i] {
				return false
			}
		}
	}
	return true
}

// Key renders a canonical string form suitable for map keys and logging.
func (p Properties) Key() string {
	if p.all {
		return "{*}"
	}
	if len(p.entries) == 0 {
		return "{}"
	}
	names := p.Names()
	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(',')
		}
		e := p.entries[name]
		sb.WriteString(name)
		sb.WriteByte('=')
		if e.wildcard {
			sb.WriteByte('*')
		} else {
			sb.WriteByte('[')
			sb.WriteString(strings.Join(e.values, "|"))
			sb.WriteByte(']')
		}
		if e.optional {
			sb.WriteByte('?')
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

// Builder accumulates property constraints before freezing them into an
// immutable Properties value.
type Builder struct {
	entries map[string]propertyEntry
}

// BuildProperties starts an empty builder.
func BuildProperties() *Builder {
	return &Builder{entries: make(map[string]propertyEntry)}
}

// With adds allowed values for the property, unioning with any existing
// constraint. A wildcard already recorded for the name wins.
func (b *Builder) With(name string, values ...string) *Builder {
	name = strings.TrimSpace(name)
	if name == "" || len(values) == 0 {
		return b
	}
	e := b.entries[name]
	if e.wildcard {
		return b
	}
	e.values = unionSorted(e.values, values)
	b.entries[name] = e
	return b
}

// WithAny records a wildcard constraint for the property, replacing any
// finite value set.
func (b *Builder) WithAny(name string) *Builder {
	name = strings.TrimSpace(name)
	if name == "" {
		return b
	}
	e := b.entries[name]
	e.wildcard = true
	e.values = nil
	b.entries[name] = e
	return b
}

// WithOptional marks the property constraint optional, creating a wildcard
// entry if the name is not yet constrained.
func (b *Builder) WithOptional(name string) *Builder {
	name = strings.TrimSpace(name)
	if name == "" {
		return b
	}
	e, ok := b.entries[name]
	if !ok {
		e = propertyEntry{values: nil, wildcard: true, optional: false}
	}
	e.optional = true
	b.entries[name] = e
	return b
}

// Get freezes the builder into an immutable Properties value. The builder
// remains usable; subsequent mutations do not affect the returned set.
func (b *Builder) Get() Properties {
	if len(b.entries) == 0 {
		return NoneProperties()
	}
	entries := make(map[string]propertyEntry, len(b.entries))
	for name, e := range b.entries {
		entries[name] = e.clone()
	}
	return Properties{all: false, entries: entries}
}

func unionSorted(existing, add []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(add))
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	for _, v := range add {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func intersects(a, b []string) bool {
	// Both slices are sorted; walk them in step.
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}
