package errors

import (
	stdErrors "errors"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, publicMsg: "validation failed", detailsOK: true},
		{code: CodeResolution, publicMsg: "order line could not be resolved", detailsOK: true},
		{code: CodeCheckout, publicMsg: "checkout rejected", detailsOK: true},
		{code: CodeTransientFetch, publicMsg: "vendor fetch failed", retryable: true, detailsOK: true},
		{code: CodeTimeout, publicMsg: "no live drop detected before the deadline", retryable: true},
		{code: CodeConflict, publicMsg: "conflict detected"},
		{code: CodeDependency, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodeInternal, publicMsg: "internal error", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.PublicMessage != "internal error" {
		t.Fatalf("expected internal fallback, got %q", meta.PublicMessage)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeResolution, "unable to resolve sku")
	if base.Code() != CodeResolution {
		t.Fatalf("expected resolution code, got %s", base.Code())
	}
	if base.Message() != "unable to resolve sku" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	withDetails := base.WithDetails(map[string]any{"item": "Rye Bagel"})
	if withDetails.Details() == nil {
		t.Fatalf("expected details to be attached")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeTransientFetch, cause, "fetch failed")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("expected wrapped error to preserve cause")
	}
	if wrapped.Error() != "TRANSIENT_FETCH_ERROR: fetch failed" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(CodeCheckout, nil, "rejected")
	if err.Unwrap() != nil {
		t.Fatalf("expected no cause when wrapping nil")
	}
}

func TestAsAndCodeOf(t *testing.T) {
	typed := New(CodeTimeout, "deadline exhausted")
	chained := stdErrors.Join(stdErrors.New("outer"), typed)

	if As(chained) == nil {
		t.Fatalf("expected typed error to be extracted")
	}
	if CodeOf(chained) != CodeTimeout {
		t.Fatalf("expected timeout code, got %s", CodeOf(chained))
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("expected plain errors to map to internal")
	}
}
