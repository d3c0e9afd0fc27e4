package scenario

import (
	"testing"

	"github.com/quantfabric/meridian/internal/mdata"
)

func curveSpec(currency, curve string) mdata.ValueSpecification {
	return mdata.NewSpecification(
		mdata.ValueNameYieldCurve,
		mdata.TargetSpecification{Type: mdata.TargetTypeCurrency, UniqueID: currency},
		mdata.BuildProperties().With(mdata.PropertyCurve, curve).Get(),
	)
}

func TestCurveSelectorMatchesKey(t *testing.T) {
	selector := NewCurveSelector("USD", "Discounting")

	match, ok := selector.FindMatchingSelector(curveSpec("USD", "Discounting"), "Default")
	if !ok || match != Selector(selector) {
		t.Fatalf("expected leaf to return itself on match")
	}
	if _, ok := selector.FindMatchingSelector(curveSpec("EUR", "Discounting"), "Default"); ok {
		t.Fatalf("currency mismatch must not match")
	}
	if _, ok := selector.FindMatchingSelector(curveSpec("USD", "Forward3M"), "Default"); ok {
		t.Fatalf("curve-name mismatch must not match")
	}
	if !selector.HasSelectionsDefined() {
		t.Fatalf("leaf selectors always have selections defined")
	}
}

func TestCurveSelectorCalcConfigRestriction(t *testing.T) {
	selector := NewCurveSelector("USD", "Discounting", "StressConfig")

	if _, ok := selector.FindMatchingSelector(curveSpec("USD", "Discounting"), "Default"); ok {
		t.Fatalf("selector restricted to StressConfig must not match Default")
	}
	if _, ok := selector.FindMatchingSelector(curveSpec("USD", "Discounting"), "StressConfig"); !ok {
		t.Fatalf("expected match under the configured calculation configuration")
	}
}

func TestCompositeSelectorDisjointChildren(t *testing.T) {
	usd := NewCurveSelector("USD", "Discounting")
	eur := NewCurveSelector("EUR", "Discounting")
	composite := NewCompositeSelector(usd, eur)

	match, ok := composite.FindMatchingSelector(curveSpec("USD", "Discounting"), "Default")
	if !ok || match != Selector(usd) {
		t.Fatalf("expected the USD leaf for the USD offer")
	}
	match, ok = composite.FindMatchingSelector(curveSpec("EUR", "Discounting"), "Default")
	if !ok || match != Selector(eur) {
		t.Fatalf("expected the EUR leaf for the EUR offer")
	}
	if _, ok := composite.FindMatchingSelector(curveSpec("GBP", "Discounting"), "Default"); ok {
		t.Fatalf("expected no match for an offer matching neither child")
	}
}

func TestCompositeSelectorFirstRegisteredWins(t *testing.T) {
	first := NewCurveSelector("USD", "Discounting")
	second := NewCurveSelector("USD", "Discounting")
	composite := NewCompositeSelector(first, second)

	match, ok := composite.FindMatchingSelector(curveSpec("USD", "Discounting"), "Default")
	if !ok || match != Selector(first) {
		t.Fatalf("registration order is the tie-break: the first child must win")
	}
}

func TestCompositeSelectorHasSelectionsDefined(t *testing.T) {
	if NewCompositeSelector().HasSelectionsDefined() {
		t.Fatalf("empty composite has no selections")
	}
	if !NewCompositeSelector(NewCurveSelector("USD", "Discounting")).HasSelectionsDefined() {
		t.Fatalf("composite with a leaf child has selections")
	}
}
