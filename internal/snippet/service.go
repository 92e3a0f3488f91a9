package snippet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"snippetmanager/internal/syncstate"
)

// Service applies user actions to the snippet list held by a hook. Reads
// and writes return immediately; persistence happens in the hook's
// background queue.
type Service struct {
	hook   *syncstate.Hook[[]Snippet]
	lang   Language
	now    func() time.Time
	logger *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithLanguage sets the language used for the uncategorized label.
func WithLanguage(l Language) Option { return func(s *Service) { s.lang = l } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wraps an existing hook.
func NewService(hook *syncstate.Hook[[]Snippet], opts ...Option) *Service {
	s := &Service{hook: hook, lang: DefaultLanguage, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open binds the snippet list in reg, starting with an empty list.
func Open(ctx context.Context, reg *syncstate.Registry, opts ...Option) (*Service, error) {
	hook, err := syncstate.Bind(ctx, reg, StorageKey, []Snippet{})
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", StorageKey, err)
	}
	return NewService(hook, opts...), nil
}

// Hook exposes the underlying hook.
func (s *Service) Hook() *syncstate.Hook[[]Snippet] { return s.hook }

// Language returns the service language.
func (s *Service) Language() Language { return s.lang }

// Ready is closed once the stored list has been loaded.
func (s *Service) Ready() <-chan struct{} { return s.hook.Ready() }

// WaitReady blocks until the stored list has been loaded or ctx is done.
func (s *Service) WaitReady(ctx context.Context) error {
	select {
	case <-s.hook.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// All returns every snippet, newest first.
func (s *Service) All() []Snippet { return s.hook.Get() }

// List returns the snippets matching q.
func (s *Service) List(q Query) []Snippet { return Filter(s.hook.Get(), q) }

// Get returns the snippet with id.
func (s *Service) Get(id int64) (Snippet, error) {
	for _, sn := range s.hook.Get() {
		if sn.ID == id {
			return sn, nil
		}
	}
	return Snippet{}, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// Categories returns the category filter values, "all" first.
func (s *Service) Categories() []string { return CategoryFilters(s.hook.Get()) }

// Suggest returns category suggestions for the typed text.
func (s *Service) Suggest(typed string) []string { return Suggest(s.hook.Get(), typed) }

// Add creates a snippet at the front of the list.
func (s *Service) Add(form FormData) (Snippet, error) {
	form, err := form.Normalize()
	if err != nil {
		return Snippet{}, err
	}
	var created Snippet
	s.hook.Update(func(cur []Snippet) []Snippet {
		now := timestamp(s.now())
		created = Snippet{
			ID:        NextID(cur, now),
			Title:     form.Title,
			Content:   form.Content,
			Category:  s.category(form.Category),
			CreatedAt: now,
			UpdatedAt: now,
		}
		return append([]Snippet{created}, cur...)
	})
	s.logger.Debug("snippet added", "id", created.ID)
	return created, nil
}

// Update replaces the title, content and category of snippet id and
// refreshes its UpdatedAt.
func (s *Service) Update(id int64, form FormData) (Snippet, error) {
	form, err := form.Normalize()
	if err != nil {
		return Snippet{}, err
	}
	var updated Snippet
	err = s.hook.TryUpdate(func(cur []Snippet) ([]Snippet, error) {
		for i, sn := range cur {
			if sn.ID != id {
				continue
			}
			sn.Title = form.Title
			sn.Content = form.Content
			sn.Category = s.category(form.Category)
			sn.UpdatedAt = timestamp(s.now())
			if sn.UpdatedAt.Before(sn.CreatedAt) {
				sn.UpdatedAt = sn.CreatedAt
			}
			next := append([]Snippet(nil), cur...)
			next[i] = sn
			updated = sn
			return next, nil
		}
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	})
	if err != nil {
		return Snippet{}, err
	}
	s.logger.Debug("snippet updated", "id", id)
	return updated, nil
}

// Delete removes snippet id.
func (s *Service) Delete(id int64) error {
	err := s.hook.TryUpdate(func(cur []Snippet) ([]Snippet, error) {
		for i, sn := range cur {
			if sn.ID == id {
				next := make([]Snippet, 0, len(cur)-1)
				next = append(next, cur[:i]...)
				return append(next, cur[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("snippet deleted", "id", id)
	return nil
}

// Import reads a JSON array of snippets from r and combines it with the
// current list according to mode. It returns how many snippets were added
// or replaced.
func (s *Service) Import(r io.Reader, mode ImportMode) (int, error) {
	imported, err := ParseImport(r)
	if err != nil {
		return 0, err
	}
	var count int
	s.hook.Update(func(cur []Snippet) []Snippet {
		clean := s.sanitize(cur, imported)
		if mode == ModeReplace {
			count = len(clean)
			return clean
		}
		var merged []Snippet
		merged, count = Merge(cur, clean)
		return merged
	})
	s.logger.Info("snippets imported", "count", count, "mode", mode)
	return count, nil
}

// Export writes the whole list in format f.
func (s *Service) Export(w io.Writer, f Format) error {
	return Export(w, s.hook.Get(), f)
}

// ExportFileName names an export made now.
func (s *Service) ExportFileName(f Format) string {
	return ExportFileName(f, s.now())
}

// sanitize fills in what older or hand-written files leave out: ids,
// timestamps and the category label.
func (s *Service) sanitize(cur, imported []Snippet) []Snippet {
	now := timestamp(s.now())
	taken := append([]Snippet(nil), cur...)
	out := make([]Snippet, 0, len(imported))
	for _, sn := range imported {
		if sn.ID <= 0 {
			sn.ID = NextID(taken, now)
		}
		if sn.CreatedAt.IsZero() {
			sn.CreatedAt = now
		}
		if sn.UpdatedAt.Before(sn.CreatedAt) {
			sn.UpdatedAt = sn.CreatedAt
		}
		sn.Category = s.category(sn.Category)
		taken = append(taken, sn)
		out = append(out, sn)
	}
	return out
}

func (s *Service) category(c string) string {
	if c == "" {
		return T(s.lang).Snippet.Uncategorized
	}
	return c
}
