package s3

import (
	"context"
	"errors"
	"testing"

	"snippetmanager/internal/kv/core"
)

func TestMockStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	if s.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	if _, err := s.Get(ctx, "snippets"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, "snippets", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "snippets")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[{"id":1}]` {
		t.Fatalf("unexpected payload %q", got)
	}
	if err := s.Set(ctx, "settings", []byte(`{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	keys, err := s.Keys(ctx, "s")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "settings" || keys[1] != "snippets" {
		t.Fatalf("unexpected keys %v", keys)
	}
	ok, err := s.Delete(ctx, "settings")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = s.Delete(ctx, "settings")
	if err != nil || ok {
		t.Fatalf("second delete should be false: %v %v", ok, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func TestNew_AppliesPrefixAndStaticCredentials(t *testing.T) {
	s, err := New(context.Background(), Config{
		Bucket:          "bucket",
		Prefix:          "/team/notes",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.objectKey("snippets"); got != "team/notes/snippets.json" {
		t.Fatalf("unexpected object key %s", got)
	}
}

func TestNormalizePrefix(t *testing.T) {
	cases := map[string]string{
		"":            "snippet-manager/",
		"a":           "a/",
		"/a/b/":       "a/b/",
		"  spaced/  ": "spaced/",
	}
	for in, want := range cases {
		if got := normalizePrefix(in); got != want {
			t.Fatalf("normalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
