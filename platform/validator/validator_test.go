package validator

import "testing"

type outcomeRequest struct {
	Outcome string `validate:"required,oneof=acquired contacted rejected lost no_response"`
	Zip     string `validate:"omitempty,zip5"`
}

func TestStruct_RejectsUnknownOutcome(t *testing.T) {
	v := New()
	err := v.Struct(outcomeRequest{Outcome: "maybe"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	fields := FieldErrors(err)
	if fields["outcome"] != "oneof" {
		t.Fatalf("expected outcome to fail oneof, got %v", fields)
	}
}

func TestStruct_Zip5(t *testing.T) {
	v := New()
	if err := v.Struct(outcomeRequest{Outcome: "acquired", Zip: "96817"}); err != nil {
		t.Fatalf("expected valid zip, got %v", err)
	}
	if err := v.Struct(outcomeRequest{Outcome: "acquired", Zip: "9681A"}); err == nil {
		t.Fatalf("expected invalid zip to fail")
	}
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	if got := FieldErrors(nil); got != nil {
		t.Fatalf("expected nil for nil error, got %v", got)
	}
}
