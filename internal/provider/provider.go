// Package provider defines the market-data provider capability surface
// implemented by feed adapters and consumed by the compute engine.
package provider

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/quantfabric/meridian/internal/mdata"
)

// Listener receives subscription lifecycle and value-change notifications.
// Notifications may arrive on arbitrary goroutines and must be treated as
// independent, unordered events.
type Listener interface {
	SubscriptionSucceeded(spec mdata.ValueSpecification)
	SubscriptionFailed(spec mdata.ValueSpecification, reason string)
	SubscriptionStopped(spec mdata.ValueSpecification)
	ValuesChanged(specs []mdata.ValueSpecification)
}

// AvailabilityProvider answers whether a provider can produce a value
// satisfying the requirement, returning the concrete specification it would
// produce.
type AvailabilityProvider interface {
	GetAvailability(target mdata.TargetSpecification, desired mdata.ValueRequirement) (mdata.ValueSpecification, bool)
}

// PermissionProvider reports which of the requested specifications the user
// may not access.
type PermissionProvider interface {
	CheckPermissions(ctx context.Context, user string, specs []mdata.ValueSpecification) []mdata.ValueSpecification
}

// Snapshot is a point-in-time read of produced values.
type Snapshot interface {
	// Query returns the snapshot value for the specification.
	Query(spec mdata.ValueSpecification) (decimal.Decimal, bool)
}

// Provider is one upstream market-data source. Subscribe and Unsubscribe
// propagate delegate failures unmodified; retries and timeouts belong to the
// underlying transport.
type Provider interface {
	AddListener(listener Listener)
	RemoveListener(listener Listener)
	Subscribe(ctx context.Context, specs ...mdata.ValueSpecification) error
	Unsubscribe(ctx context.Context, specs ...mdata.ValueSpecification) error
	Availability() AvailabilityProvider
	Permissions() PermissionProvider
	Snapshot(ctx context.Context) (Snapshot, error)
}
