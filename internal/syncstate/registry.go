package syncstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrKeyTypeMismatch is returned when a key is bound with a second type.
	ErrKeyTypeMismatch = errors.New("syncstate: key already bound with a different type")
	// ErrRegistryClosed is returned by Bind after Close.
	ErrRegistryClosed = errors.New("syncstate: registry closed")
)

type closer interface {
	Close(ctx context.Context) error
}

// Registry owns at most one hook per key.
type Registry struct {
	store Persister
	opts  []Option

	mu     sync.Mutex
	hooks  map[string]closer
	order  []string
	closed bool
}

// NewRegistry returns a registry whose hooks persist through store.
func NewRegistry(store Persister, opts ...Option) *Registry {
	return &Registry{store: store, opts: opts, hooks: make(map[string]closer)}
}

// Bind returns the hook for key, creating it with def on first use. Binding
// an existing key with a different T fails with ErrKeyTypeMismatch; def is
// ignored for an existing hook.
func Bind[T any](ctx context.Context, reg *Registry, key string, def T) (*Hook[T], error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.closed {
		return nil, ErrRegistryClosed
	}
	if existing, ok := reg.hooks[key]; ok {
		h, ok := existing.(*Hook[T])
		if !ok {
			return nil, fmt.Errorf("%w: %q is %T", ErrKeyTypeMismatch, key, existing)
		}
		return h, nil
	}
	h := New(ctx, reg.store, key, def, reg.opts...)
	reg.hooks[key] = h
	reg.order = append(reg.order, key)
	return h, nil
}

// Close closes every hook, flushing their pending saves.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	hooks := make([]closer, 0, len(r.order))
	for _, key := range r.order {
		hooks = append(hooks, r.hooks[key])
	}
	r.mu.Unlock()

	var errs []error
	for _, h := range hooks {
		if err := h.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
