package snippet

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"snippetmanager/internal/kv"
	"snippetmanager/internal/medium"
	"snippetmanager/internal/storage"
	"snippetmanager/internal/syncstate"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newTestService(t *testing.T, opts ...Option) (*Service, *storage.Adapter, *fixedClock) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handle := medium.NewReady(medium.Capability{Kind: medium.KindKeyValue, Store: kv.NewMemory()})
	adapter := storage.New(handle, storage.WithLogger(logger))
	reg := syncstate.NewRegistry(adapter, syncstate.WithLogger(logger))
	t.Cleanup(func() { _ = reg.Close(context.Background()) })

	clock := &fixedClock{t: time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)}
	opts = append([]Option{WithClock(clock.now), WithLogger(logger)}, opts...)
	svc, err := Open(context.Background(), reg, opts...)
	require.NoError(t, err)
	require.NoError(t, svc.WaitReady(context.Background()))
	return svc, adapter, clock
}

func TestService_AddNewestFirst(t *testing.T) {
	svc, _, clock := newTestService(t)

	a, err := svc.Add(FormData{Title: "  first ", Content: "echo 1", Category: "shell"})
	require.NoError(t, err)
	b, err := svc.Add(FormData{Title: "second", Content: "echo 2"})
	require.NoError(t, err)

	require.Equal(t, "first", a.Title)
	require.Equal(t, clock.t.UnixMilli(), a.ID)
	require.Equal(t, a.ID+1, b.ID, "same millisecond still yields a unique id")
	require.Equal(t, "Sans catégorie", b.Category)
	require.Equal(t, a.CreatedAt, a.UpdatedAt)
	require.Equal(t, []Snippet{b, a}, svc.All())
}

func TestService_AddValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Add(FormData{Title: " ", Content: "x"})
	require.ErrorIs(t, err, ErrTitleRequired)
	_, err = svc.Add(FormData{Title: "x", Content: "\n\t"})
	require.ErrorIs(t, err, ErrContentRequired)
	require.Empty(t, svc.All())
}

func TestService_UncategorizedFollowsLanguage(t *testing.T) {
	svc, _, _ := newTestService(t, WithLanguage(English))
	sn, err := svc.Add(FormData{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.Equal(t, "Uncategorized", sn.Category)
	require.Equal(t, English, svc.Language())
}

func TestService_Update(t *testing.T) {
	svc, _, clock := newTestService(t)
	orig, err := svc.Add(FormData{Title: "t", Content: "c", Category: "go"})
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour)
	got, err := svc.Update(orig.ID, FormData{Title: "t2", Content: "c2", Category: ""})
	require.NoError(t, err)
	require.Equal(t, orig.CreatedAt, got.CreatedAt)
	require.True(t, got.UpdatedAt.After(got.CreatedAt))
	require.True(t, got.Edited())
	require.Equal(t, "Sans catégorie", got.Category)

	stored, err := svc.Get(orig.ID)
	require.NoError(t, err)
	require.Equal(t, got, stored)

	_, err = svc.Update(12345, FormData{Title: "x", Content: "y"})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Update(orig.ID, FormData{Title: "", Content: "y"})
	require.ErrorIs(t, err, ErrTitleRequired)
}

func TestService_Delete(t *testing.T) {
	svc, _, clock := newTestService(t)
	a, _ := svc.Add(FormData{Title: "a", Content: "a"})
	clock.t = clock.t.Add(time.Second)
	b, _ := svc.Add(FormData{Title: "b", Content: "b"})

	require.NoError(t, svc.Delete(a.ID))
	require.Equal(t, []Snippet{b}, svc.All())
	require.ErrorIs(t, svc.Delete(a.ID), ErrNotFound)
	_, err := svc.Get(a.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_PersistsThroughHook(t *testing.T) {
	svc, adapter, _ := newTestService(t)
	a, _ := svc.Add(FormData{Title: "a", Content: "α", Category: "x"})
	require.NoError(t, svc.Hook().Flush(context.Background()))

	var stored []Snippet
	require.NoError(t, adapter.Load(context.Background(), StorageKey, &stored))
	require.Equal(t, []Snippet{a}, stored)
}

func TestService_ListAndCategories(t *testing.T) {
	svc, _, clock := newTestService(t)
	for _, f := range []FormData{
		{Title: "Docker prune", Content: "docker system prune", Category: "ops"},
		{Title: "Go test", Content: "go test ./...", Category: "go"},
		{Title: "misc", Content: "DOCKER ps"},
		{Title: "Go vet", Content: "go vet", Category: "go"},
	} {
		_, err := svc.Add(f)
		require.NoError(t, err)
		clock.t = clock.t.Add(time.Millisecond)
	}

	titles := func(list []Snippet) []string {
		var out []string
		for _, s := range list {
			out = append(out, s.Title)
		}
		return out
	}
	require.Equal(t, []string{"misc", "Docker prune"}, titles(svc.List(Query{Search: "docker"})))
	require.Equal(t, []string{"Go vet", "Go test"}, titles(svc.List(Query{Category: "go"})))
	require.Equal(t, []string{"Go test"}, titles(svc.List(Query{Search: "TEST", Category: "go"})))
	require.Len(t, svc.List(Query{Category: AllCategories}), 4)

	require.Equal(t, []string{"all", "go", "Sans catégorie", "ops"}, svc.Categories())
	require.Equal(t, []string{"go", "ops"}, svc.Suggest(""))
	require.Equal(t, []string{"ops"}, svc.Suggest("OP"))
	require.Empty(t, svc.Suggest("sans"))
}

func TestService_ImportReplaceAndMerge(t *testing.T) {
	svc, _, _ := newTestService(t, WithLanguage(English))
	existing, _ := svc.Add(FormData{Title: "mine", Content: "x", Category: "c"})

	file := `[
	  {"id": 1, "title": "legacy", "content": "old", "category": "", "createdAt": "2023-05-01T10:00:00.000Z"},
	  {"id": ` + strconv.FormatInt(existing.ID, 10) + `, "title": "stale", "content": "x", "category": "c",
	   "createdAt": "2020-01-01T00:00:00Z", "updatedAt": "2020-01-01T00:00:00Z"}
	]`
	n, err := svc.Import(strings.NewReader(file), ModeMerge)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	all := svc.All()
	require.Len(t, all, 2)
	require.Equal(t, "legacy", all[0].Title)
	require.Equal(t, "Uncategorized", all[0].Category)
	require.Equal(t, all[0].CreatedAt, all[0].UpdatedAt)
	require.Equal(t, "mine", all[1].Title, "older import does not replace")

	n, err = svc.Import(strings.NewReader(`[{"id": 7, "title": "only", "content": "c", "category": "k"}]`), ModeReplace)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, svc.All(), 1)
	require.Equal(t, int64(7), svc.All()[0].ID)

	_, err = svc.Import(strings.NewReader(`{"id": 1}`), ModeMerge)
	require.ErrorIs(t, err, ErrInvalidImport)
	_, err = svc.Import(strings.NewReader(`[{"id": `), ModeMerge)
	require.ErrorIs(t, err, ErrInvalidImport)
	require.Len(t, svc.All(), 1)
}

func TestService_Export(t *testing.T) {
	svc, _, _ := newTestService(t)
	var buf bytes.Buffer
	require.ErrorIs(t, svc.Export(&buf, FormatJSON), ErrNothingToExport)

	_, err := svc.Add(FormData{Title: "t", Content: "c", Category: "k"})
	require.NoError(t, err)
	require.NoError(t, svc.Export(&buf, FormatText))
	require.Equal(t, "[t]\nCategory: k\n\nc\n", buf.String())
	require.Equal(t, "snippets-export-2025-03-14.txt", svc.ExportFileName(FormatText))
}
