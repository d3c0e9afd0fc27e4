package provider

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/quantfabric/meridian/internal/mdata"
)

// MemoryProvider is an in-memory Provider seeded with concrete values. It
// backs tests and the local engine wiring; production sources implement the
// same capability surface over their native transports.
type MemoryProvider struct {
	name string

	mu         sync.RWMutex
	values     map[string]decimal.Decimal
	specs      map[string]mdata.ValueSpecification
	subscribed map[string]int
	listeners  []Listener
	denied     map[string]map[string]struct{}
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider(name string) *MemoryProvider {
	p := new(MemoryProvider)
	p.name = name
	p.values = make(map[string]decimal.Decimal)
	p.specs = make(map[string]mdata.ValueSpecification)
	p.subscribed = make(map[string]int)
	p.denied = make(map[string]map[string]struct{})
	return p
}

// Name returns the provider name.
func (p *MemoryProvider) Name() string { return p.name }

// Set seeds or updates a produced value and notifies listeners.
func (p *MemoryProvider) Set(spec mdata.ValueSpecification, value decimal.Decimal) {
	p.mu.Lock()
	key := spec.Key()
	p.values[key] = value
	p.specs[key] = spec
	listeners := append([]Listener(nil), p.listeners...)
	p.mu.Unlock()
	for _, l := range listeners {
		l.ValuesChanged([]mdata.ValueSpecification{spec})
	}
}

// Remove deletes a produced value.
func (p *MemoryProvider) Remove(spec mdata.ValueSpecification) {
	p.mu.Lock()
	key := spec.Key()
	delete(p.values, key)
	delete(p.specs, key)
	p.mu.Unlock()
}

// Deny marks the specification inaccessible to the user.
func (p *MemoryProvider) Deny(user string, spec mdata.ValueSpecification) {
	p.mu.Lock()
	if p.denied[user] == nil {
		p.denied[user] = make(map[string]struct{})
	}
	p.denied[user][spec.Key()] = struct{}{}
	p.mu.Unlock()
}

// AddListener registers a listener for subsequent notifications.
func (p *MemoryProvider) AddListener(listener Listener) {
	if listener == nil {
		return
	}
	p.mu.Lock()
	p.listeners = append(p.listeners, listener)
	p.mu.Unlock()
}

// RemoveListener deregisters a previously added listener.
func (p *MemoryProvider) RemoveListener(listener Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, l := range p.listeners {
		if l == listener {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}

// Subscribe records the subscriptions and notifies listeners of success for
// known values and failure for unknown ones.
func (p *MemoryProvider) Subscribe(_ context.Context, specs ...mdata.ValueSpecification) error {
	p.mu.Lock()
	listeners := append([]Listener(nil), p.listeners...)
	known := make(map[string]bool, len(specs))
	for _, spec := range specs {
		key := spec.Key()
		p.subscribed[key]++
		_, known[key] = p.values[key]
	}
	p.mu.Unlock()
	for _, spec := range specs {
		for _, l := range listeners {
			if known[spec.Key()] {
				l.SubscriptionSucceeded(spec)
			} else {
				l.SubscriptionFailed(spec, "value not produced by "+p.name)
			}
		}
	}
	return nil
}

// Unsubscribe releases the subscriptions and notifies listeners.
func (p *MemoryProvider) Unsubscribe(_ context.Context, specs ...mdata.ValueSpecification) error {
	p.mu.Lock()
	listeners := append([]Listener(nil), p.listeners...)
	for _, spec := range specs {
		key := spec.Key()
		if p.subscribed[key] > 0 {
			p.subscribed[key]--
		}
		if p.subscribed[key] == 0 {
			delete(p.subscribed, key)
		}
	}
	p.mu.Unlock()
	for _, spec := range specs {
		for _, l := range listeners {
			l.SubscriptionStopped(spec)
		}
	}
	return nil
}

// SubscriptionCount reports active subscriptions for the specification.
func (p *MemoryProvider) SubscriptionCount(spec mdata.ValueSpecification) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.subscribed[spec.Key()]
}

// Availability returns the provider's availability view.
func (p *MemoryProvider) Availability() AvailabilityProvider {
	return memoryAvailability{provider: p}
}

// Permissions returns the provider's permission view.
func (p *MemoryProvider) Permissions() PermissionProvider {
	return memoryPermissions{provider: p}
}

// Snapshot copies the current values into an immutable point-in-time view.
func (p *MemoryProvider) Snapshot(_ context.Context) (Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	values := make(map[string]decimal.Decimal, len(p.values))
	for k, v := range p.values {
		values[k] = v
	}
	return memorySnapshot{values: values}, nil
}

type memoryAvailability struct {
	provider *MemoryProvider
}

// GetAvailability returns the first seeded specification on the target that
// satisfies the requirement.
func (a memoryAvailability) GetAvailability(target mdata.TargetSpecification, desired mdata.ValueRequirement) (mdata.ValueSpecification, bool) {
	a.provider.mu.RLock()
	defer a.provider.mu.RUnlock()
	for _, spec := range a.provider.specs {
		if spec.Target != target {
			continue
		}
		if desired.ValueName != spec.ValueName {
			continue
		}
		if mdata.Satisfies(desired.Constraints, spec.Properties) {
			return spec, true
		}
	}
	return mdata.ValueSpecification{}, false
}

type memoryPermissions struct {
	provider *MemoryProvider
}

// CheckPermissions returns the subset of specifications denied to the user.
func (p memoryPermissions) CheckPermissions(_ context.Context, user string, specs []mdata.ValueSpecification) []mdata.ValueSpecification {
	p.provider.mu.RLock()
	defer p.provider.mu.RUnlock()
	deniedKeys := p.provider.denied[user]
	if len(deniedKeys) == 0 {
		return nil
	}
	var rejected []mdata.ValueSpecification
	for _, spec := range specs {
		if _, denied := deniedKeys[spec.Key()]; denied {
			rejected = append(rejected, spec)
		}
	}
	return rejected
}

type memorySnapshot struct {
	values map[string]decimal.Decimal
}

// Query returns the snapshot value for the specification.
func (s memorySnapshot) Query(spec mdata.ValueSpecification) (decimal.Decimal, bool) {
	v, ok := s.values[spec.Key()]
	return v, ok
}
