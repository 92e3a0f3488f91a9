// Package syncstate keeps an in-memory value synchronized with durable
// storage under a single key.
//
// A Hook serves reads from memory and applies writes to memory immediately,
// then persists them in the background. Per key, the initial load and every
// save run on one worker goroutine in the order they were issued, so a
// write made while the initial load is still in flight is never overwritten
// by the older stored value.
package syncstate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"snippetmanager/internal/metrics"
	"snippetmanager/internal/storage"
)

// State is a hook's synchronization lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Persister is the storage contract a hook depends on. Load returns an error
// wrapping storage.ErrNotFound when nothing is stored under key.
type Persister interface {
	Load(ctx context.Context, key string, dst any) error
	Save(ctx context.Context, key string, v any) error
}

type config struct {
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option customises a Hook.
type Option func(*config)

// WithLogger sets the logger used for storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder for state and queue depth.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *config) {
		if r != nil {
			c.recorder = r
		}
	}
}

// Hook mirrors the value stored under one key. Values handed to Set, or
// returned by Update, must not be mutated afterwards; they are shared with
// watchers and the pending save.
type Hook[T any] struct {
	key      string
	def      T
	store    Persister
	logger   *slog.Logger
	recorder metrics.Recorder

	q      *queue
	cancel context.CancelFunc
	ready  chan struct{}

	mu        sync.Mutex
	value     T
	state     State
	dirty     bool
	closed    bool
	watchers  map[int]func(T)
	nextWatch int
	issued    uint64 // notification tickets handed out under mu

	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	delivered  uint64
}

// New returns a hook holding def and starts loading key from store. The
// load is the first job on the hook's queue; ctx scopes the values of all
// background jobs but only Close cancels them.
func New[T any](ctx context.Context, store Persister, key string, def T, opts ...Option) *Hook[T] {
	cfg := config{logger: slog.Default(), recorder: metrics.Nop{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := &Hook[T]{
		key:      key,
		def:      def,
		store:    store,
		logger:   cfg.logger.With("key", key),
		recorder: cfg.recorder,
		cancel:   cancel,
		ready:    make(chan struct{}),
		value:    def,
		watchers: make(map[int]func(T)),
	}
	h.notifyCond = sync.NewCond(&h.notifyMu)
	h.q = newQueue(func(depth int) { h.recorder.SetQueueDepth(key, depth) })
	h.recorder.SetSyncState(key, int(StateUninitialized))
	h.q.push(h.load)
	go h.q.run(jobCtx)
	return h
}

// Key returns the storage key.
func (h *Hook[T]) Key() string { return h.key }

// Get returns the current in-memory value without touching storage.
func (h *Hook[T]) Get() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

// State returns the lifecycle state.
func (h *Hook[T]) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Ready is closed once the initial load has finished, whatever its outcome.
func (h *Hook[T]) Ready() <-chan struct{} { return h.ready }

// Set replaces the value and schedules a save.
func (h *Hook[T]) Set(v T) {
	_ = h.apply(func(T) (T, error) { return v, nil })
}

// Update replaces the value with fn(current) and schedules a save. fn runs
// with the hook locked and must not call back into h.
func (h *Hook[T]) Update(fn func(T) T) {
	_ = h.apply(func(cur T) (T, error) { return fn(cur), nil })
}

// TryUpdate is Update for changes that can be refused. When fn returns an
// error the value is left as is, nothing is saved and the error is returned.
func (h *Hook[T]) TryUpdate(fn func(T) (T, error)) error {
	return h.apply(fn)
}

func (h *Hook[T]) apply(fn func(T) (T, error)) error {
	h.mu.Lock()
	next, err := fn(h.value)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.value = next
	if h.state != StateReady {
		h.dirty = true
	}
	watchers, ticket := h.watcherList(), h.takeTicket()
	persisted := false
	if !h.closed {
		persisted = h.q.push(func(ctx context.Context) { h.save(ctx, next) })
	}
	h.mu.Unlock()

	if !persisted {
		h.logger.Warn("hook closed, change kept in memory only")
	}
	h.deliver(ticket, watchers, next)
	return nil
}

// Watch registers fn to run after every change of the value. Calls are
// serialized in the order the changes were applied to memory. fn must not
// set the value synchronously. The returned function removes it.
func (h *Hook[T]) Watch(fn func(T)) (cancel func()) {
	h.mu.Lock()
	id := h.nextWatch
	h.nextWatch++
	h.watchers[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.watchers, id)
		h.mu.Unlock()
	}
}

// Flush waits until every job queued before the call has completed.
func (h *Hook[T]) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !h.q.push(func(context.Context) { close(done) }) {
		return h.waitStopped(ctx)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the worker. Later writes still update
// memory but are not persisted. If ctx ends first, in-flight storage calls
// are cancelled and ctx.Err() is returned.
func (h *Hook[T]) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.q.stop()
	return h.waitStopped(ctx)
}

func (h *Hook[T]) waitStopped(ctx context.Context) error {
	select {
	case <-h.q.stopped:
		h.cancel()
		return nil
	case <-ctx.Done():
		h.cancel()
		return ctx.Err()
	}
}

func (h *Hook[T]) load(ctx context.Context) {
	h.setState(StateLoading)
	defer close(h.ready)

	var loaded T
	err := h.store.Load(ctx, h.key, &loaded)
	switch {
	case err == nil && isNil(loaded) && !isNil(h.def):
		h.logger.Warn("stored value is null, keeping in-memory value")
		h.setState(StateReady)
	case err == nil:
		h.mu.Lock()
		changed := !h.dirty && !equal(h.value, loaded)
		var ticket uint64
		if changed {
			h.value = loaded
			ticket = h.takeTicket()
		}
		h.state = StateReady
		value, watchers := h.value, h.watcherList()
		h.mu.Unlock()
		h.recorder.SetSyncState(h.key, int(StateReady))
		if changed {
			h.deliver(ticket, watchers, value)
		}
	case errors.Is(err, storage.ErrNotFound):
		h.mu.Lock()
		dirty := h.dirty
		h.mu.Unlock()
		if !dirty {
			if err := h.store.Save(ctx, h.key, h.def); err != nil {
				h.logger.Error("seed default failed", "error", err)
			}
		}
		h.setState(StateReady)
	default:
		h.logger.Error("load failed, keeping in-memory value", "error", err)
		h.setState(StateReady)
	}
}

func (h *Hook[T]) save(ctx context.Context, v T) {
	if err := h.store.Save(ctx, h.key, v); err != nil {
		h.logger.Error("save failed", "error", err)
	}
}

func (h *Hook[T]) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
	h.recorder.SetSyncState(h.key, int(s))
}

// watcherList must be called with h.mu held.
func (h *Hook[T]) watcherList() []func(T) {
	if len(h.watchers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(h.watchers))
	for id := range h.watchers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(T), len(ids))
	for i, id := range ids {
		out[i] = h.watchers[id]
	}
	return out
}

// takeTicket must be called with h.mu held.
func (h *Hook[T]) takeTicket() uint64 {
	t := h.issued
	h.issued++
	return t
}

// deliver runs watchers once every earlier ticket has been delivered.
func (h *Hook[T]) deliver(ticket uint64, watchers []func(T), v T) {
	h.notifyMu.Lock()
	for h.delivered != ticket {
		h.notifyCond.Wait()
	}
	h.notifyMu.Unlock()

	for _, fn := range watchers {
		fn(v)
	}

	h.notifyMu.Lock()
	h.delivered++
	h.notifyCond.Broadcast()
	h.notifyMu.Unlock()
}

// isNil reports whether v is a nil slice, map, pointer or interface, which
// is what a stored JSON null decodes to.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func equal[T any](a, b T) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}
