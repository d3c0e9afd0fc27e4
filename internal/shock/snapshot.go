// Package shock composes two historical market-data readings and one live
// reading into a derived "shocked" feed with cross-source consensus checks.
package shock

import (
	"github.com/shopspring/decimal"

	"github.com/quantfabric/meridian/internal/mdata"
	"github.com/quantfabric/meridian/internal/provider"
)

// Type selects the shock arithmetic applied to the live reading.
type Type string

const (
	// Additive applies the absolute move between the two historical readings.
	Additive Type = "ADDITIVE"
	// Proportional applies the relative move between the two historical readings.
	Proportional Type = "PROPORTIONAL"
)

// HistoricalShockSnapshot wraps three point-in-time snapshots and computes
// shocked values lazily on read. hist1 is the "to" reading and hist2 the
// "from" reading of the historical move:
//
//	ADDITIVE     → base + (hist1 − hist2)
//	PROPORTIONAL → base × (hist1 ÷ hist2)
//
// A field missing from either historical snapshot is unavailable in the
// shocked view, never zeroed or defaulted.
type HistoricalShockSnapshot struct {
	shockType Type
	hist1     provider.Snapshot
	hist2     provider.Snapshot
	base      provider.Snapshot
}

// NewHistoricalShockSnapshot wraps the three underlying snapshots.
func NewHistoricalShockSnapshot(shockType Type, hist1, hist2, base provider.Snapshot) *HistoricalShockSnapshot {
	return &HistoricalShockSnapshot{shockType: shockType, hist1: hist1, hist2: hist2, base: base}
}

// ShockType returns the configured shock arithmetic.
func (s *HistoricalShockSnapshot) ShockType() Type { return s.shockType }

// Query computes the shocked value for the specification.
func (s *HistoricalShockSnapshot) Query(spec mdata.ValueSpecification) (decimal.Decimal, bool) {
	base, ok := s.base.Query(spec)
	if !ok {
		return decimal.Decimal{}, false
	}
	h1, ok := s.hist1.Query(spec)
	if !ok {
		return decimal.Decimal{}, false
	}
	h2, ok := s.hist2.Query(spec)
	if !ok {
		return decimal.Decimal{}, false
	}
	switch s.shockType {
	case Additive:
		return base.Add(h1.Sub(h2)), true
	case Proportional:
		if h2.IsZero() {
			return decimal.Decimal{}, false
		}
		return base.Mul(h1.Div(h2)), true
	default:
		return decimal.Decimal{}, false
	}
}
