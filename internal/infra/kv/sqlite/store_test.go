package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"snippetmanager/internal/kv/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := New(context.Background(), path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTempStore(t)
	if s.Driver() != core.DriverSQLite {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	if _, err := s.Get(ctx, "snippets"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, "snippets", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "snippets", []byte(`[{"id":2}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, "snippets")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[{"id":2}]` {
		t.Fatalf("unexpected payload %q", got)
	}
}

func TestStore_KeysAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTempStore(t)
	for _, k := range []string{"snippets", "settings", "other"} {
		if err := s.Set(ctx, k, []byte(`null`)); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	keys, err := s.Keys(ctx, "s")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "settings" || keys[1] != "snippets" {
		t.Fatalf("unexpected keys %v", keys)
	}
	all, err := s.Keys(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 keys, got %v %v", all, err)
	}
	ok, err := s.Delete(ctx, "other")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = s.Delete(ctx, "other")
	if err != nil || ok {
		t.Fatalf("second delete should report false")
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := New(ctx, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Set(ctx, "snippets", []byte(`["é"]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := New(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	got, err := reopened.Get(ctx, "snippets")
	if err != nil || string(got) != `["é"]` {
		t.Fatalf("unexpected payload %q %v", got, err)
	}
}

func TestStore_InMemoryPath(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, ":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = s.Close() }()
	if err := s.Set(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != `{"a":1}` {
		t.Fatalf("unexpected payload %q %v", got, err)
	}
}
