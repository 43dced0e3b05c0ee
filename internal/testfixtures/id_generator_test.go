package testfixtures

import "testing"

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("reg")

	if got := gen.Next(); got != "reg-1" {
		t.Fatalf("expected reg-1, got %q", got)
	}
	if got := gen.Next(); got != "reg-2" {
		t.Fatalf("expected reg-2, got %q", got)
	}
}

func TestIDGeneratorDefaultPrefix(t *testing.T) {
	gen := NewIDGenerator("")

	if got := gen.Next(); got != "reg-1" {
		t.Fatalf("expected default prefix, got %q", got)
	}
}

func TestIDGeneratorNextFunc(t *testing.T) {
	gen := NewIDGenerator("job")
	next := gen.NextFunc()

	if got := next(); got != "job-1" {
		t.Fatalf("expected job-1, got %q", got)
	}

	var nilGen *IDGenerator
	if got := nilGen.NextFunc()(); got != "" {
		t.Fatalf("expected empty id from nil generator, got %q", got)
	}
}
