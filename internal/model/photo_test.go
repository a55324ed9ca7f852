package model

import "testing"

func TestNewPhotoIDIsDeterministic(t *testing.T) {
	a := NewPhotoID("/photos/a.cr2")
	b := NewPhotoID("/photos/a.cr2")
	if a != b {
		t.Fatalf("expected same path to produce same ID, got %q and %q", a, b)
	}
}

func TestNewPhotoIDDiffersByPath(t *testing.T) {
	a := NewPhotoID("/photos/a.cr2")
	b := NewPhotoID("/photos/b.cr2")
	if a == b {
		t.Fatal("expected different paths to produce different IDs")
	}
}

func TestSetDuplicateOfDistinguishesUnset(t *testing.T) {
	p := LogicalPhoto{ID: "p1"}
	if _, ok := p.DuplicateOfPtr(); ok {
		t.Fatal("expected no keeper before SetDuplicateOf")
	}

	p.SetDuplicateOf("keeper1")
	id, ok := p.DuplicateOfPtr()
	if !ok || id != "keeper1" {
		t.Fatalf("expected keeper1, got %q ok=%v", id, ok)
	}
	if !p.IsDuplicate {
		t.Fatal("expected IsDuplicate to be set")
	}
}
