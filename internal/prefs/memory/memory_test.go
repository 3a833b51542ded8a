package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/prefs"
)

func TestMemoryStoreApplyAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.Apply(ctx, prefs.Put("a", "1"), prefs.Put("b", "2"), prefs.Remove("a")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Fatalf("expected a to be removed within the same batch")
	}
	if v, ok, _ := s.Get(ctx, "b"); !ok || v != "2" {
		t.Fatalf("unexpected b: %q %v", v, ok)
	}
	if keys := s.Keys(""); len(keys) != 1 || keys[0] != "b" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")

	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Apply(ctx, prefs.Put("income:alice", "5000.00")); err != nil {
		t.Fatalf("apply: %v", err)
	}

	reopened, err := NewFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, ok, _ := reopened.Get(ctx, "income:alice"); !ok || v != "5000.00" {
		t.Fatalf("unexpected value after reopen: %q %v", v, ok)
	}
}

func TestFileStoreRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if keys := s.Keys(""); len(keys) != 0 {
		t.Fatalf("expected empty store, got %v", keys)
	}
}
