package core

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

// Every call to Next must produce a unique ID and leave the counter at
// the number of calls.
func TestProperty_IDUniqueness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 100).Draw(rt, "n")
		prefix := rapid.StringMatching(`[A-Z]{2,6}`).Draw(rt, "prefix")
		pad := rapid.IntRange(0, 6).Draw(rt, "pad")

		dir, err := os.MkdirTemp("", "idgen-property-*")
		if err != nil {
			t.Fatalf("failed to create temp dir: %v", err)
		}
		defer os.RemoveAll(dir)

		gen := NewIDGenerator(dir, ".ready_counter", prefix, pad)

		seen := make(map[string]struct{}, n)
		for i := 0; i < n; i++ {
			id, err := gen.Next()
			if err != nil {
				t.Fatalf("Next failed on call %d: %v", i+1, err)
			}
			if _, exists := seen[id]; exists {
				t.Fatalf("duplicate ID %q on call %d", id, i+1)
			}
			seen[id] = struct{}{}
		}

		data, err := os.ReadFile(filepath.Join(dir, ".ready_counter"))
		if err != nil {
			t.Fatalf("failed to read counter file: %v", err)
		}
		if string(data) != fmt.Sprintf("%d", n) {
			t.Fatalf("expected counter file to contain %d, got %s", n, string(data))
		}
	})
}
