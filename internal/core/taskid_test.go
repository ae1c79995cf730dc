package core

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestIDGenerator_FirstID(t *testing.T) {
	dir := t.TempDir()
	gen := NewIDGenerator(dir, ".ready_counter", "TASK", 5)

	id, err := gen.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "TASK-00001" {
		t.Errorf("expected TASK-00001, got %s", id)
	}
}

func TestIDGenerator_IncrementsCounter(t *testing.T) {
	dir := t.TempDir()
	gen := NewSessionIDGenerator(dir)

	for _, want := range []string{"SESS-00001", "SESS-00002", "SESS-00003"} {
		id, err := gen.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != want {
			t.Errorf("expected %s, got %s", want, id)
		}
	}
}

func TestIDGenerator_NoPadding(t *testing.T) {
	gen := NewIDGenerator(t.TempDir(), ".ready_counter", "STORY", 0)

	id, err := gen.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "STORY-1" {
		t.Errorf("expected STORY-1, got %s", id)
	}
}

func TestIDGenerator_ReadsExistingCounter(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".ready_counter"), []byte("42\n"), 0o644); err != nil {
		t.Fatalf("failed to write counter file: %v", err)
	}

	id, err := NewIDGenerator(dir, ".ready_counter", "TASK", 5).Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "TASK-00043" {
		t.Errorf("expected TASK-00043, got %s", id)
	}
}

func TestIDGenerator_CorruptCounter(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".session_counter"), []byte("forty"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewSessionIDGenerator(dir).Next(); err == nil {
		t.Fatal("expected error for a corrupt counter")
	}
}

func TestIDGenerator_SeparateCounters(t *testing.T) {
	dir := t.TempDir()
	sessions := NewSessionIDGenerator(dir)
	ready := NewIDGenerator(dir, ".ready_counter", "TASK", 5)

	if _, err := sessions.Next(); err != nil {
		t.Fatal(err)
	}
	if _, err := sessions.Next(); err != nil {
		t.Fatal(err)
	}
	id, err := ready.Next()
	if err != nil {
		t.Fatal(err)
	}
	if id != "TASK-00001" {
		t.Errorf("ready ids must not share the session counter, got %s", id)
	}
}

func TestIDGenerator_ConcurrentCallers(t *testing.T) {
	dir := t.TempDir()
	const n = 20

	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := NewSessionIDGenerator(dir).Next()
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate id %s", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d ids, got %d", n, len(seen))
	}
}

func TestNextSeq(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		ids    []string
		want   int
	}{
		{"empty", "S", nil, 1},
		{"gaps", "S", []string{"S1", "S7", "S3"}, 8},
		{"other prefixes ignored", "Q", []string{"S9", "Q2", "QX"}, 3},
		{"story ids", "US-", []string{"US-001", "US-012"}, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextSeq(tt.prefix, tt.ids); got != tt.want {
				t.Errorf("nextSeq(%q, %v) = %d, want %d", tt.prefix, tt.ids, got, tt.want)
			}
		})
	}
}

func TestIDFormats(t *testing.T) {
	if got := storyID(7); got != "US-007" {
		t.Errorf("storyID(7) = %s", got)
	}
	if got := criterionID(2); got != "AC2" {
		t.Errorf("criterionID(2) = %s", got)
	}
	if got := statementID(3) + topicID(4) + questionID(5) + contradictionID(6); got != "S3T4Q5C6" {
		t.Errorf("ids = %s", got)
	}
}
