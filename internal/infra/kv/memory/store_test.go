package memory

import (
	"context"
	"errors"
	"testing"

	"snippetmanager/internal/kv/core"
)

func TestStore_SetGetDeleteKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, "snippets", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "settings", []byte(`{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "snippets")
	if err != nil || string(got) != `[]` {
		t.Fatalf("get: %q %v", got, err)
	}
	keys, err := s.Keys(ctx, "s")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "settings" || keys[1] != "snippets" {
		t.Fatalf("unexpected keys %v", keys)
	}
	ok, err := s.Delete(ctx, "snippets")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = s.Delete(ctx, "snippets")
	if err != nil || ok {
		t.Fatalf("second delete should be false")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	buf := []byte("abc")
	if err := s.Set(ctx, "k", buf); err != nil {
		t.Fatalf("set: %v", err)
	}
	buf[0] = 'x'
	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}
	got[1] = 'y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned value aliased stored buffer: %q", again)
	}
}
