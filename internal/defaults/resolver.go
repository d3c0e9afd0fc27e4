// Package defaults resolves configuration-driven default property values by
// specificity: identified target before wildcard target, named value before
// wildcard value.
package defaults

import (
	"strings"

	"github.com/quantfabric/meridian/internal/configstore"
)

// Lookup keys take the flat form
//
//	TypeName.ValueName.DEFAULT_PropertyName[.Identifier]
//
// where ValueName may be the wildcard "*".
const (
	marker   = ".DEFAULT_"
	wildcard = "*"
)

// Mode selects which half of the specificity order a resolver serves.
type Mode int

const (
	// ModeIdentified resolves only identifier-suffixed keys, used for
	// position and trade level overrides keyed by external identifiers.
	ModeIdentified Mode = iota
	// ModeGeneric resolves only identifier-less keys, used for calculation
	// configuration level overrides.
	ModeGeneric
)

// Resolver looks up default property values from a flat configuration store.
// A resolver instance operates in exactly one Mode.
type Resolver struct {
	store configstore.Store
	mode  Mode
}

// NewIdentifiedResolver builds a resolver serving identifier-suffixed keys.
func NewIdentifiedResolver(store configstore.Store) *Resolver {
	return &Resolver{store: store, mode: ModeIdentified}
}

// NewGenericResolver builds a resolver serving identifier-less keys.
func NewGenericResolver(store configstore.Store) *Resolver {
	return &Resolver{store: store, mode: ModeGeneric}
}

// Mode reports the resolver's operating mode.
func (r *Resolver) Mode() Mode {
	return r.mode
}

func (m Mode) String() string {
	switch m {
	case ModeIdentified:
		return "identified"
	case ModeGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Resolve returns the configured default values for the property, or false
// when no default applies. Identifiers are ordered most-specific first; the
// first configured key wins.
func (r *Resolver) Resolve(typeName string, identifiers []string, valueName, propertyName string) ([]string, bool) {
	if r.store == nil || typeName == "" || valueName == "" || propertyName == "" {
		return nil, false
	}
	switch r.mode {
	case ModeIdentified:
		for _, id := range identifiers {
			if values, ok := r.lookup(typeName, valueName, propertyName, id); ok {
				return values, true
			}
		}
		for _, id := range identifiers {
			if values, ok := r.lookup(typeName, wildcard, propertyName, id); ok {
				return values, true
			}
		}
	case ModeGeneric:
		if values, ok := r.lookup(typeName, valueName, propertyName, ""); ok {
			return values, true
		}
		if values, ok := r.lookup(typeName, wildcard, propertyName, ""); ok {
			return values, true
		}
	}
	return nil, false
}

func (r *Resolver) lookup(typeName, valueName, propertyName, identifier string) ([]string, bool) {
	key := typeName + "." + valueName + marker + propertyName
	if identifier != "" {
		key += "." + identifier
	}
	raw, ok := r.store.Lookup(key)
	if !ok {
		return nil, false
	}
	values := splitValues(raw)
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

// CanApplyTo reports whether at least one configured key matches the
// type/identifier pattern served by this resolver. It is a cheap existence
// probe: it never returns false when Resolve could succeed for some value and
// property name of the target.
func (r *Resolver) CanApplyTo(typeName string, identifiers []string) bool {
	if r.store == nil || typeName == "" {
		return false
	}
	prefix := typeName + "."
	for _, key := range r.store.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		idx := strings.Index(key, marker)
		if idx < 0 {
			// Malformed key without the DEFAULT_ marker: skipped, never an error.
			continue
		}
		tail := key[idx+len(marker):]
		if tail == "" {
			continue
		}
		dot := strings.IndexByte(tail, '.')
		switch r.mode {
		case ModeIdentified:
			if dot <= 0 || dot == len(tail)-1 {
				continue
			}
			if matchesIdentifier(tail[dot+1:], identifiers) {
				return true
			}
		case ModeGeneric:
			// A dot after the property name indicates an identifier
			// suffix, which generic mode treats as malformed.
			if dot < 0 {
				return true
			}
		}
	}
	return false
}

func matchesIdentifier(suffix string, identifiers []string) bool {
	for _, id := range identifiers {
		if id != "" && suffix == id {
			return true
		}
	}
	return false
}

func splitValues(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
