package id

import "testing"

func TestNewProducesDistinctValidIDs(t *testing.T) {
	a, b := New(), New()
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
	if !Valid(a) || !Valid(b) {
		t.Fatalf("expected valid ids, got %s and %s", a, b)
	}
	if Valid("../../etc/passwd") {
		t.Fatal("path-like input must not validate")
	}
}
