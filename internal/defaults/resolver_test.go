package defaults

import (
	"testing"

	"github.com/quantfabric/meridian/internal/configstore"
)

func storeWith(entries map[string]string) configstore.Store {
	return configstore.NewMemoryStore(entries)
}

func TestIdentifiedResolutionSpecificity(t *testing.T) {
	store := storeWith(map[string]string{
		"POS.*.DEFAULT_Horizon":        "1D",
		"POS.PNL.DEFAULT_Horizon.ID1":  "5D",
		"POS.*.DEFAULT_Horizon.ID2":    "10D",
		"POS.PNL.DEFAULT_Currency.ID1": "USD,GBP",
	})
	resolver := NewIdentifiedResolver(store)

	values, ok := resolver.Resolve("POS", []string{"ID1"}, "PNL", "Horizon")
	if !ok || len(values) != 1 || values[0] != "5D" {
		t.Fatalf("expected exact value-name + identifier hit 5D, got %v ok=%v", values, ok)
	}

	// Wildcard value name with matching identifier beats nothing at all.
	values, ok = resolver.Resolve("POS", []string{"ID2"}, "PNL", "Horizon")
	if !ok || len(values) != 1 || values[0] != "10D" {
		t.Fatalf("expected wildcard value-name hit 10D, got %v ok=%v", values, ok)
	}

	// Identifier-less generic key never applies in identified mode.
	if values, ok = resolver.Resolve("POS", []string{"ID3"}, "PNL", "Horizon"); ok {
		t.Fatalf("expected no default for unmatched identifier, got %v", values)
	}

	values, ok = resolver.Resolve("POS", []string{"ID1"}, "PNL", "Currency")
	if !ok || len(values) != 2 || values[0] != "USD" || values[1] != "GBP" {
		t.Fatalf("expected comma-separated value set, got %v ok=%v", values, ok)
	}
}

func TestIdentifiedResolutionIdentifierOrder(t *testing.T) {
	store := storeWith(map[string]string{
		"TRADE.PNL.DEFAULT_Horizon.EXT1": "3D",
		"TRADE.PNL.DEFAULT_Horizon.EXT2": "7D",
	})
	resolver := NewIdentifiedResolver(store)

	values, ok := resolver.Resolve("TRADE", []string{"EXT2", "EXT1"}, "PNL", "Horizon")
	if !ok || values[0] != "7D" {
		t.Fatalf("most-specific-first identifier must win, got %v ok=%v", values, ok)
	}
}

func TestGenericResolutionFallsBackToWildcardValueName(t *testing.T) {
	store := storeWith(map[string]string{
		"POS.*.DEFAULT_Horizon":   "1D",
		"POS.VAR.DEFAULT_Horizon": "2W",
	})
	resolver := NewGenericResolver(store)

	values, ok := resolver.Resolve("POS", nil, "VAR", "Horizon")
	if !ok || values[0] != "2W" {
		t.Fatalf("expected exact value-name hit, got %v ok=%v", values, ok)
	}
	values, ok = resolver.Resolve("POS", nil, "PNL", "Horizon")
	if !ok || values[0] != "1D" {
		t.Fatalf("expected wildcard value-name fallback, got %v ok=%v", values, ok)
	}
}

func TestGenericModeIgnoresIdentifierSuffixedKeys(t *testing.T) {
	store := storeWith(map[string]string{
		"POS.PNL.DEFAULT_Horizon.ID1": "5D",
	})
	resolver := NewGenericResolver(store)

	if values, ok := resolver.Resolve("POS", nil, "PNL", "Horizon"); ok {
		t.Fatalf("identifier-suffixed key must not resolve in generic mode, got %v", values)
	}
	if resolver.CanApplyTo("POS", nil) {
		t.Fatalf("generic CanApplyTo must ignore identifier-suffixed keys")
	}
}

func TestCanApplyToAgreesWithResolve(t *testing.T) {
	store := storeWith(map[string]string{
		"POS.PNL.DEFAULT_Horizon.ID1": "5D",
		"SEC.*.DEFAULT_Currency":      "USD",
		"BROKEN.KeyWithoutMarker":     "x",
	})

	identified := NewIdentifiedResolver(store)
	if !identified.CanApplyTo("POS", []string{"ID1"}) {
		t.Fatalf("identified probe must see the matching identifier key")
	}
	if identified.CanApplyTo("POS", []string{"ID9"}) {
		t.Fatalf("identified probe must not match foreign identifiers")
	}
	if identified.CanApplyTo("BROKEN", []string{"ID1"}) {
		t.Fatalf("malformed keys are silently skipped")
	}

	generic := NewGenericResolver(store)
	if !generic.CanApplyTo("SEC", nil) {
		t.Fatalf("generic probe must see the identifier-less key")
	}
	if generic.CanApplyTo("POS", nil) {
		t.Fatalf("generic probe must not match identifier-suffixed keys")
	}
}

func TestResolveSpecExample(t *testing.T) {
	// Config fixture from the platform documentation: the identified
	// override wins for ID1, and identified mode has no generic fallback.
	store := storeWith(map[string]string{
		"POS.*.DEFAULT_Horizon":       "1D",
		"POS.PNL.DEFAULT_Horizon.ID1": "5D",
	})
	resolver := NewIdentifiedResolver(store)

	values, ok := resolver.Resolve("POS", []string{"ID1"}, "PNL", "Horizon")
	if !ok || len(values) != 1 || values[0] != "5D" {
		t.Fatalf("expected 5D for ID1, got %v ok=%v", values, ok)
	}
	if values, ok := resolver.Resolve("POS", []string{"ID2"}, "PNL", "Horizon"); ok {
		t.Fatalf("expected no default for ID2 in identified mode, got %v", values)
	}
}
