// Package storage loads and saves JSON values by key on whichever medium the
// process selected.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"snippetmanager/internal/kv"
	"snippetmanager/internal/medium"
	"snippetmanager/internal/metrics"
)

// Adapter reads and writes JSON values through a medium handle. It is safe
// for concurrent use; ordering per key is the caller's concern.
type Adapter struct {
	handle   *medium.Handle
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option customises an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(a *Adapter) {
		if r != nil {
			a.recorder = r
		}
	}
}

// New returns an adapter bound to h.
func New(h *medium.Handle, opts ...Option) *Adapter {
	a := &Adapter{handle: h, logger: slog.Default(), recorder: metrics.Nop{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Medium returns the medium kind of the underlying handle.
func (a *Adapter) Medium() medium.Kind { return a.handle.Kind() }

// Load decodes the value stored at key into dst. A key with no value yields
// ErrNotFound; any other failure is a *LoadError.
func (a *Adapter) Load(ctx context.Context, key string, dst any) (err error) {
	start := time.Now()
	kind := a.handle.Kind()
	defer func() { a.observe("load", key, kind, start, err) }()

	if err := ValidateKey(key); err != nil {
		return &LoadError{Key: key, Medium: kind, Err: err}
	}
	c, err := a.handle.Await(ctx)
	if err != nil {
		return &LoadError{Key: key, Medium: kind, Err: err}
	}

	var raw []byte
	switch kind {
	case medium.KindFilesystem:
		path, perr := filePath(ctx, c, key)
		if perr != nil {
			return &LoadError{Key: key, Medium: kind, Err: perr}
		}
		raw, err = c.Files.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %q: %w", key, ErrNotFound)
		}
	case medium.KindKeyValue:
		raw, err = c.Store.Get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			return fmt.Errorf("load %q: %w", key, ErrNotFound)
		}
	default:
		err = fmt.Errorf("unknown medium %q", kind)
	}
	if err != nil {
		return &LoadError{Key: key, Medium: kind, Err: err}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &LoadError{Key: key, Medium: kind, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// Save encodes v and replaces the value stored at key. Failures are
// returned as *SaveError.
func (a *Adapter) Save(ctx context.Context, key string, v any) (err error) {
	start := time.Now()
	kind := a.handle.Kind()
	defer func() { a.observe("save", key, kind, start, err) }()

	if err := ValidateKey(key); err != nil {
		return &SaveError{Key: key, Medium: kind, Err: err}
	}
	c, err := a.handle.Await(ctx)
	if err != nil {
		return &SaveError{Key: key, Medium: kind, Err: err}
	}

	switch kind {
	case medium.KindFilesystem:
		err = saveFile(ctx, c, key, v)
	case medium.KindKeyValue:
		var raw []byte
		raw, err = json.Marshal(v)
		if err != nil {
			err = fmt.Errorf("encode: %w", err)
			break
		}
		err = c.Store.Set(ctx, key, raw)
	default:
		err = fmt.Errorf("unknown medium %q", kind)
	}
	if err != nil {
		return &SaveError{Key: key, Medium: kind, Err: err}
	}
	return nil
}

// Keys lists the keys that currently hold a value, in ascending order.
func (a *Adapter) Keys(ctx context.Context) (keys []string, err error) {
	start := time.Now()
	kind := a.handle.Kind()
	defer func() { a.observe("keys", "", kind, start, err) }()

	c, err := a.handle.Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys on %s: %w", kind, err)
	}
	switch kind {
	case medium.KindFilesystem:
		keys, err = fileKeys(ctx, c)
	case medium.KindKeyValue:
		keys, err = c.Store.Keys(ctx, "")
	default:
		err = fmt.Errorf("unknown medium %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("list keys on %s: %w", kind, err)
	}
	slices.Sort(keys)
	return keys, nil
}

// Delete removes the value stored at key. It reports whether there was one.
func (a *Adapter) Delete(ctx context.Context, key string) (deleted bool, err error) {
	start := time.Now()
	kind := a.handle.Kind()
	defer func() { a.observe("delete", key, kind, start, err) }()

	if err := ValidateKey(key); err != nil {
		return false, &SaveError{Key: key, Medium: kind, Err: err}
	}
	c, err := a.handle.Await(ctx)
	if err != nil {
		return false, &SaveError{Key: key, Medium: kind, Err: err}
	}
	switch kind {
	case medium.KindFilesystem:
		var path string
		if path, err = filePath(ctx, c, key); err != nil {
			break
		}
		err = c.Files.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		deleted = err == nil
	case medium.KindKeyValue:
		deleted, err = c.Store.Delete(ctx, key)
	default:
		err = fmt.Errorf("unknown medium %q", kind)
	}
	if err != nil {
		return false, &SaveError{Key: key, Medium: kind, Err: err}
	}
	return deleted, nil
}

func fileKeys(ctx context.Context, c medium.Capability) ([]string, error) {
	dir, err := c.Paths.AppDataDir(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve app data dir: %w", err)
	}
	names, err := c.Files.ReadDir(filepath.Join(dir, medium.AppDirName))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		key, ok := strings.CutSuffix(name, ".json")
		if !ok || ValidateKey(key) != nil || strings.HasPrefix(name, ".") {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func saveFile(ctx context.Context, c medium.Capability, key string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	raw = append(raw, '\n')
	path, err := filePath(ctx, c, key)
	if err != nil {
		return err
	}
	if err := c.Files.MkdirAll(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	return c.Files.WriteFile(path, raw)
}

// FilePath returns where the filesystem medium keeps key under appDataDir.
func FilePath(appDataDir, key string) string {
	return filepath.Join(appDataDir, medium.AppDirName, key+".json")
}

func filePath(ctx context.Context, c medium.Capability, key string) (string, error) {
	dir, err := c.Paths.AppDataDir(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve app data dir: %w", err)
	}
	return FilePath(dir, key), nil
}

// ValidateKey rejects empty keys and keys containing path separators or "..".
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	case strings.Contains(key, ".."):
		return fmt.Errorf("%w: %q contains \"..\"", ErrInvalidKey, key)
	}
	return nil
}

func (a *Adapter) observe(op, key string, kind medium.Kind, start time.Time, err error) {
	elapsed := time.Since(start)
	result := metrics.ResultOK
	switch {
	case errors.Is(err, ErrNotFound):
		result = metrics.ResultNotFound
	case err != nil:
		result = metrics.ResultError
	}
	a.recorder.ObserveStorage(op, string(kind), result, elapsed)
	a.logger.Debug("storage "+op, "key", key, "medium", kind, "result", result, "duration", elapsed)
}
