package scanerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsMatchesWrappedError(t *testing.T) {
	base := New(IoError, "Hash", "/a.jpg", errors.New("disk fault"))
	wrapped := fmt.Errorf("context: %w", base)

	if !Is(wrapped, IoError) {
		t.Fatal("expected Is to see through fmt.Errorf wrapping")
	}
	if Is(wrapped, NotFound) {
		t.Fatal("expected Is to reject a non-matching kind")
	}
}

func TestErrorMessageIncludesPathAndCause(t *testing.T) {
	err := New(CloudPlaceholder, "TrailingHash", "/a.jpg", errors.New("not downloaded"))
	msg := err.Error()
	if msg == "" {
		t.Fatal("expected non-empty error message")
	}
	if !strings.Contains(msg, "/a.jpg") {
		t.Fatalf("expected message to include the path, got %q", msg)
	}
	if !strings.Contains(msg, "not downloaded") {
		t.Fatalf("expected message to include the cause, got %q", msg)
	}
}
