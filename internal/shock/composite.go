package shock

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/quantfabric/meridian/internal/mdata"
	"github.com/quantfabric/meridian/internal/provider"
)

// Composite is a market-data provider that fans subscription, permission, and
// availability operations out to three upstream providers and derives a
// shocked snapshot from two historical readings and one live reading.
//
// The stateless fan-out operations are safe for concurrent use; blocking
// behaviour, timeouts, and retries belong entirely to the delegates.
type Composite struct {
	shockType Type
	hist1     provider.Provider
	hist2     provider.Provider
	base      provider.Provider

	listeners *listenerSet
}

// NewComposite wires the composite over its three delegates. Listener
// notifications from any delegate pass through to listeners registered on the
// composite, unordered and not deduplicated.
func NewComposite(shockType Type, hist1, hist2, base provider.Provider) *Composite {
	c := new(Composite)
	c.shockType = shockType
	c.hist1 = hist1
	c.hist2 = hist2
	c.base = base
	c.listeners = newListenerSet()
	forwarder := &forwardingListener{target: c.listeners}
	for _, delegate := range c.delegates() {
		delegate.AddListener(forwarder)
	}
	return c
}

func (c *Composite) delegates() []provider.Provider {
	return []provider.Provider{c.hist1, c.hist2, c.base}
}

// ShockType returns the configured shock arithmetic.
func (c *Composite) ShockType() Type { return c.shockType }

// AddListener registers a listener for pass-through delegate notifications.
func (c *Composite) AddListener(listener provider.Listener) {
	c.listeners.add(listener)
}

// RemoveListener deregisters a listener.
func (c *Composite) RemoveListener(listener provider.Listener) {
	c.listeners.remove(listener)
}

// Subscribe forwards the subscription to all three delegates. A delegate
// failure propagates to the caller unmodified; no retry is attempted.
func (c *Composite) Subscribe(ctx context.Context, specs ...mdata.ValueSpecification) error {
	for _, delegate := range c.delegates() {
		if err := delegate.Subscribe(ctx, specs...); err != nil {
			return err
		}
	}
	return nil
}

// Unsubscribe forwards the release to all three delegates. A delegate failure
// propagates to the caller unmodified.
func (c *Composite) Unsubscribe(ctx context.Context, specs ...mdata.ValueSpecification) error {
	for _, delegate := range c.delegates() {
		if err := delegate.Unsubscribe(ctx, specs...); err != nil {
			return err
		}
	}
	return nil
}

// Availability returns the composite's consensus availability view.
func (c *Composite) Availability() provider.AvailabilityProvider {
	return compositeAvailability{composite: c}
}

// Permissions returns the composite's fail-closed permission view.
func (c *Composite) Permissions() provider.PermissionProvider {
	return compositePermissions{composite: c}
}

// Snapshot builds point-in-time snapshots from all three sources and wraps
// them in a lazily-computed shocked view.
func (c *Composite) Snapshot(ctx context.Context) (provider.Snapshot, error) {
	snapshots := make([]provider.Snapshot, 3)
	p := pool.New().WithErrors().WithMaxGoroutines(3)
	for i, delegate := range c.delegates() {
		i, delegate := i, delegate
		p.Go(func() error {
			snap, err := delegate.Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("shock source %d snapshot: %w", i, err)
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return NewHistoricalShockSnapshot(c.shockType, snapshots[0], snapshots[1], snapshots[2]), nil
}

// Equal reports structural equality over the shock type and the three
// delegates, making two composites over the same sources interchangeable for
// caching purposes.
func (c *Composite) Equal(o *Composite) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.shockType == o.shockType &&
		c.hist1 == o.hist1 &&
		c.hist2 == o.hist2 &&
		c.base == o.base
}

type compositeAvailability struct {
	composite *Composite
}

// GetAvailability queries all three delegates and returns the resulting
// specification only when the three answers are structurally equal. Any
// disagreement, or any source reporting unavailability, yields "not
// available" rather than an error.
func (a compositeAvailability) GetAvailability(target mdata.TargetSpecification, desired mdata.ValueRequirement) (mdata.ValueSpecification, bool) {
	type answer struct {
		spec mdata.ValueSpecification
		ok   bool
	}
	answers := make([]answer, 3)
	p := pool.New().WithMaxGoroutines(3)
	for i, delegate := range a.composite.delegates() {
		i, delegate := i, delegate
		p.Go(func() {
			spec, ok := delegate.Availability().GetAvailability(target, desired)
			answers[i] = answer{spec: spec, ok: ok}
		})
	}
	p.Wait()
	for _, ans := range answers {
		if !ans.ok {
			return mdata.ValueSpecification{}, false
		}
	}
	if !answers[0].spec.Equal(answers[1].spec) || !answers[1].spec.Equal(answers[2].spec) {
		return mdata.ValueSpecification{}, false
	}
	return answers[0].spec, true
}

type compositePermissions struct {
	composite *Composite
}

// CheckPermissions returns the union of rejections reported by the three
// delegates: any single source denying a value denies it for the composite.
func (p compositePermissions) CheckPermissions(ctx context.Context, user string, specs []mdata.ValueSpecification) []mdata.ValueSpecification {
	rejections := make([][]mdata.ValueSpecification, 3)
	workers := pool.New().WithMaxGoroutines(3)
	for i, delegate := range p.composite.delegates() {
		i, delegate := i, delegate
		workers.Go(func() {
			rejections[i] = delegate.Permissions().CheckPermissions(ctx, user, specs)
		})
	}
	workers.Wait()

	seen := make(map[string]struct{})
	var union []mdata.ValueSpecification
	for _, rejected := range rejections {
		for _, spec := range rejected {
			key := spec.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, spec)
		}
	}
	return union
}
