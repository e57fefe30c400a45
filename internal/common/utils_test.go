package common

import "testing"

func TestHasAny(t *testing.T) {
	if !HasAny("Unable to geocode", "unable to GEOCODE") {
		t.Fatal("expected a case-insensitive match")
	}
	if HasAny("ok", "error", "fail") {
		t.Fatal("expected no match")
	}
}

func TestNumericHelpers(t *testing.T) {
	if Round2(1.005+1e-9) != 1.01 || Round2(-2.344) != -2.34 {
		t.Fatal("unexpected rounding")
	}
	if Clamp(5, 0, 1) != 1 || Clamp(-5, 0, 1) != 0 || Clamp(0.5, 0, 1) != 0.5 {
		t.Fatal("unexpected clamping")
	}
	if Lerp(10, 20, 0.25) != 12.5 || Lerp(0, 1, 2) != 2 {
		t.Fatal("unexpected interpolation")
	}
}
