package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := map[string]string{
		"(808) 586-0034":    "+18085860034",
		"  +1 808 586 0034": "+18085860034",
		"owner@example.com": "owner@example.com",
		"":                  "",
	}
	for in, want := range cases {
		if got := NormalizeE164(in); got != want {
			t.Fatalf("NormalizeE164(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestLooksLikePhone(t *testing.T) {
	if !LooksLikePhone("808-586-0034") {
		t.Fatalf("expected Hawaii number to be recognised")
	}
	if LooksLikePhone("owner@example.com") {
		t.Fatalf("expected email to be rejected")
	}
}
