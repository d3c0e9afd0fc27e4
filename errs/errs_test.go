package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFormattingIncludesCanonicalAndMetadata(t *testing.T) {
	err := New(
		"shock/composite",
		CodeUnavailable,
		WithMessage("availability consensus failed"),
		WithCanonicalCode(CanonicalConsensusFailed),
		WithMetadata(map[string]string{
			"value_name": "Market_Value",
			"target":     "BLOOMBERG_TICKER~AAPL US Equity",
		}),
		WithField("sources", "3"),
		WithCause(errors.New("specifications differ")),
	)

	out := err.Error()
	if !strings.Contains(out, "component=shock/composite") {
		t.Fatalf("expected component marker in error string: %s", out)
	}
	if !strings.Contains(out, "code=unavailable") {
		t.Fatalf("expected code in error string: %s", out)
	}
	if !strings.Contains(out, "canonical=consensus_failed") {
		t.Fatalf("expected canonical classification in error string: %s", out)
	}
	expectedMeta := "meta=sources=\"3\",target=\"BLOOMBERG_TICKER~AAPL US Equity\",value_name=\"Market_Value\""
	if !strings.Contains(out, expectedMeta) {
		t.Fatalf("expected metadata %q in error string: %s", expectedMeta, out)
	}
	if !strings.Contains(out, "cause=\"specifications differ\"") {
		t.Fatalf("expected wrapped cause in error string: %s", out)
	}
}

func TestWithCanonicalCodeEmptyDefaultsToUnknown(t *testing.T) {
	err := New("defaults/resolver", CodeConfig, WithCanonicalCode("   "))
	if err.Canonical != CanonicalUnknown {
		t.Fatalf("expected canonical code to default to unknown, got %q", err.Canonical)
	}
	if strings.Contains(err.Error(), "canonical=") {
		t.Fatalf("canonical marker should be omitted when code is unknown: %s", err.Error())
	}
}

func TestWithMetadataMerge(t *testing.T) {
	err := New(
		"normalization/pipeline",
		CodeRule,
		WithMetadata(map[string]string{"instrument": "AAPL"}),
		WithMetadata(map[string]string{"instrument": "MSFT", "rule": "FieldFilter"}),
	)

	if got := err.Metadata["instrument"]; got != "MSFT" {
		t.Fatalf("expected latest metadata to win, got %q", got)
	}
	if got := err.Metadata["rule"]; got != "FieldFilter" {
		t.Fatalf("expected rule metadata to be present, got %q", got)
	}
}

func TestNilErrorString(t *testing.T) {
	var e *E
	if got := e.Error(); got != "<nil>" {
		t.Fatalf("expected <nil> string for nil error, got %q", got)
	}
}

func TestUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("boom")
	err := New("provider/live", CodeProvider, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to match the wrapped cause")
	}
}
