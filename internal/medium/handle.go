package medium

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Await after Close.
var ErrClosed = errors.New("medium: handle closed")

// Handle is a process-wide, read-only-after-init reference to the selected
// medium.
type Handle struct {
	kind  Kind
	ready chan struct{}

	mu         sync.RWMutex
	state      State
	capability Capability
	err        error
	closed     bool
}

func newHandle(kind Kind) *Handle {
	return &Handle{kind: kind, ready: make(chan struct{}), state: StatePending}
}

// NewPending returns a pending handle and the function that resolves it.
// Only the first call to resolve has an effect.
func NewPending(kind Kind) (*Handle, func(Capability, error)) {
	h := newHandle(kind)
	return h, h.resolve
}

// NewReady returns a handle whose capability is already available.
func NewReady(c Capability) *Handle {
	h := newHandle(c.Kind)
	h.resolve(c, nil)
	return h
}

// Kind returns the selected medium; it is known before the capability is.
func (h *Handle) Kind() Kind { return h.kind }

// State reports the capability lifecycle.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Ready is closed once the handle leaves StatePending.
func (h *Handle) Ready() <-chan struct{} { return h.ready }

// Await blocks until the capability is resolved or ctx is done. A pending
// capability is never an error by itself.
func (h *Handle) Await(ctx context.Context) (Capability, error) {
	select {
	case <-h.ready:
	case <-ctx.Done():
		return Capability{}, ctx.Err()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return Capability{}, ErrClosed
	}
	if h.err != nil {
		return Capability{}, h.err
	}
	return h.capability, nil
}

func (h *Handle) resolve(c Capability, err error) {
	h.mu.Lock()
	if h.state != StatePending {
		h.mu.Unlock()
		return
	}
	c.Kind = h.kind
	if err != nil {
		h.state, h.err = StateFailed, err
	} else {
		h.state, h.capability = StateReady, c
	}
	closeLate := h.closed && c.Store != nil
	h.mu.Unlock()
	close(h.ready)
	if closeLate {
		_ = c.Store.Close()
	}
}

// Close releases the key-value store, if any. A capability that resolves
// after Close is released as soon as it arrives.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	store := h.capability.Store
	h.mu.Unlock()
	if store != nil {
		return store.Close()
	}
	return nil
}
