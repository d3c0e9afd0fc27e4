package normalization

import "github.com/quantfabric/meridian/errs"

// SecurityRuleProvider resolves an instrument-specific rule, or nil when the
// instrument needs no special handling.
type SecurityRuleProvider interface {
	RuleFor(instrument string) (Rule, error)
}

// SecurityRuleApplier delegates to a per-instrument rule resolved at tick
// time. A nil resolution passes the tick through; a provider or delegate
// failure extinguishes the tick.
type SecurityRuleApplier struct {
	provider SecurityRuleProvider
}

// NewSecurityRuleApplier builds the applier over the provider.
func NewSecurityRuleApplier(provider SecurityRuleProvider) *SecurityRuleApplier {
	return &SecurityRuleApplier{provider: provider}
}

// Name identifies the rule in logs.
func (r *SecurityRuleApplier) Name() string { return "SecurityRuleApplier" }

// Apply resolves and runs the instrument-specific rule.
func (r *SecurityRuleApplier) Apply(instrument string, tick Tick, history History) (Tick, bool, error) {
	if r.provider == nil {
		return tick, true, nil
	}
	rule, err := r.provider.RuleFor(instrument)
	if err != nil {
		return Tick{}, false, errs.New("normalization/security-rule", errs.CodeRule,
			errs.WithMessage("resolve instrument rule"),
			errs.WithField("instrument", instrument),
			errs.WithCause(err))
	}
	if rule == nil {
		return tick, true, nil
	}
	out, ok, err := rule.Apply(instrument, tick, history)
	if err != nil {
		return Tick{}, false, errs.New("normalization/security-rule", errs.CodeRule,
			errs.WithMessage("instrument rule failed"),
			errs.WithField("instrument", instrument),
			errs.WithField("rule", rule.Name()),
			errs.WithCause(err))
	}
	return out, ok, nil
}
