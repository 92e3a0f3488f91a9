package medium

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"snippetmanager/internal/kv"
)

const (
	// ShellEnv carries the desktop-shell marker.
	ShellEnv = "SNIPPET_MANAGER_SHELL"
	// DesktopShell is the ShellEnv value that selects the filesystem medium.
	DesktopShell = "desktop"
)

// Environment is what detection inspects.
type Environment struct {
	Shell   string // desktop-shell marker, usually from ShellEnv
	Medium  Kind   // explicit choice; empty means detect
	DataDir string // overrides the platform application data directory
	KV      kv.Config
}

// Select picks the medium for env without resolving any capability.
func Select(env Environment) Kind {
	if env.Medium != "" {
		return env.Medium
	}
	if env.Shell == DesktopShell {
		return KindFilesystem
	}
	return KindKeyValue
}

type options struct {
	logger *slog.Logger
	files  FileSystem
	paths  PathResolver
	openKV func(context.Context, kv.Config) (kv.Store, error)
}

// Option customises Detect.
type Option func(*options)

// WithLogger sets the logger used while resolving the capability.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithFileSystem replaces the OS file system.
func WithFileSystem(fs FileSystem) Option { return func(o *options) { o.files = fs } }

// WithPathResolver replaces the platform data directory lookup.
func WithPathResolver(p PathResolver) Option { return func(o *options) { o.paths = p } }

// WithKVOpener replaces kv.Open.
func WithKVOpener(fn func(context.Context, kv.Config) (kv.Store, error)) Option {
	return func(o *options) { o.openKV = fn }
}

// Detect selects the medium for env and starts resolving its capability in
// the background. The returned handle is pending until that finishes.
func Detect(ctx context.Context, env Environment, opts ...Option) *Handle {
	o := options{files: OSFileSystem{}, openKV: kv.Open}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.paths == nil {
		o.paths = DataDirResolver{Base: env.DataDir}
	}

	h := newHandle(Select(env))
	o.logger.Debug("storage medium selected", "medium", h.kind, "shell", env.Shell)
	go func() {
		c, err := resolveCapability(ctx, h.kind, env, o)
		if err != nil {
			o.logger.Error("storage medium unavailable", "medium", h.kind, "error", err)
		} else {
			o.logger.Debug("storage medium ready", "medium", h.kind)
		}
		h.resolve(c, err)
	}()
	return h
}

func resolveCapability(ctx context.Context, kind Kind, env Environment, o options) (Capability, error) {
	switch kind {
	case KindFilesystem:
		if _, err := o.paths.AppDataDir(ctx); err != nil {
			return Capability{}, fmt.Errorf("resolve app data dir: %w", err)
		}
		return Capability{Files: o.files, Paths: o.paths}, nil
	case KindKeyValue:
		cfg := env.KV
		if (cfg.Driver == "" || cfg.Driver == kv.DriverSQLite) && cfg.SQLitePath == "" {
			dir, err := o.paths.AppDataDir(ctx)
			if err != nil {
				return Capability{}, fmt.Errorf("resolve app data dir: %w", err)
			}
			cfg.SQLitePath = filepath.Join(dir, AppDirName, "store.db")
		}
		store, err := o.openKV(ctx, cfg)
		if err != nil {
			return Capability{}, fmt.Errorf("open kv store: %w", err)
		}
		return Capability{Store: store, Paths: o.paths}, nil
	default:
		return Capability{}, fmt.Errorf("unknown medium %q", kind)
	}
}

var (
	defaultOnce   sync.Once
	defaultHandle *Handle
)

// Default returns the process-wide handle, running Detect on first use.
// Later calls ignore their arguments.
func Default(ctx context.Context, env Environment, opts ...Option) *Handle {
	defaultOnce.Do(func() {
		defaultHandle = Detect(ctx, env, opts...)
	})
	return defaultHandle
}
