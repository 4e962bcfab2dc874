package publicid

import (
	"strings"
	"testing"
)

func TestNewLengthAndAlphabet(t *testing.T) {
	id, err := New(6)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if len(id) != 6 {
		t.Fatalf("expected 6 characters, got %d", len(id))
	}
	for _, r := range id {
		if !strings.ContainsRune(alphabet, r) {
			t.Fatalf("character %q outside alphabet", r)
		}
	}
}

func TestNewDefaultsLength(t *testing.T) {
	id, err := New(0)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if len(id) != DefaultLength {
		t.Fatalf("expected default length %d, got %d", DefaultLength, len(id))
	}
}

func TestNewIsUnlikelyToCollide(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id, err := New(8)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("collision after %d ids", i)
		}
		seen[id] = struct{}{}
	}
}
