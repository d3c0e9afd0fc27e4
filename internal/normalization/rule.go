package normalization

import (
	"strings"
	"sync"

	"github.com/quantfabric/meridian/errs"
)

// Rule transforms an incoming tick. Returning ok=false extinguishes the tick
// immediately: no further rules run and nothing is forwarded. A non-nil error
// also extinguishes, and is logged by the pipeline.
type Rule interface {
	Name() string
	Apply(instrument string, tick Tick, history History) (Tick, bool, error)
}

// RuleSet is a named, ordered, immutable list of rules.
type RuleSet struct {
	id    string
	rules []Rule
}

// NewRuleSet builds a rule set with the given id and ordered rules.
func NewRuleSet(id string, rules ...Rule) RuleSet {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return RuleSet{id: strings.TrimSpace(id), rules: out}
}

// ID returns the rule set identifier.
func (s RuleSet) ID() string {
	return s.id
}

// Rules returns a copy of the ordered rule list.
func (s RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Registry resolves rule sets by exact id. It is an explicit object built at
// startup and passed to consumers; there is no process-wide registry.
type Registry struct {
	mu   sync.RWMutex
	sets map[string]RuleSet
}

// NewRegistry creates an empty rule-set registry.
func NewRegistry() *Registry {
	registry := new(Registry)
	registry.sets = make(map[string]RuleSet)
	return registry
}

// Register adds a rule set, rejecting duplicate ids.
func (r *Registry) Register(set RuleSet) error {
	if set.ID() == "" {
		return errs.New("normalization/registry", errs.CodeInvalid,
			errs.WithMessage("rule set id required"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sets[set.ID()]; exists {
		return errs.New("normalization/registry", errs.CodeConflict,
			errs.WithMessage("rule set already registered"),
			errs.WithField("id", set.ID()))
	}
	r.sets[set.ID()] = set
	return nil
}

// Resolve returns the rule set registered under the exact id. A missing id is
// not an error.
func (r *Registry) Resolve(id string) (RuleSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.sets[id]
	return set, ok
}

// IDs returns the registered rule set identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sets))
	for id := range r.sets {
		out = append(out, id)
	}
	return out
}
