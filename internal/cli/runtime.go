package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"snippetmanager/internal/config"
	applog "snippetmanager/internal/log"
	"snippetmanager/internal/medium"
	"snippetmanager/internal/metrics"
	"snippetmanager/internal/snippet"
	"snippetmanager/internal/storage"
	"snippetmanager/internal/syncstate"
)

var errStorageUnavailable = errors.New("storage unavailable")

var (
	loadConfigFn   = config.Load
	detectMediumFn = medium.Default
)

// storageApp is what a command gets once the storage medium is ready.
type storageApp struct {
	cfg      config.Config
	logger   *slog.Logger
	adapter  *storage.Adapter
	recorder metrics.Recorder
	gatherer prometheus.Gatherer
	timeout  time.Duration
}

// app is what a command gets once storage has loaded.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	svc      *snippet.Service
	gatherer prometheus.Gatherer
}

func loadOptions(cmd *cobra.Command, g *globalOptions) config.LoadOptions {
	opts := config.LoadOptions{ConfigPath: g.ConfigPath}
	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	if changed("medium") {
		opts.Flags.Medium = &g.Medium
	}
	if changed("driver") {
		opts.Flags.Driver = &g.Driver
	}
	if changed("lang") {
		opts.Flags.Language = &g.Lang
	}
	if changed("data-dir") {
		opts.Flags.DataDir = &g.DataDir
	}
	return opts
}

// withStorage loads config and waits for the storage medium before calling
// fn with an adapter over it.
func withStorage(cmd *cobra.Command, deps commandDeps, fn func(context.Context, *storageApp) error) error {
	cfg, err := loadConfigFn(loadOptions(cmd, deps.globals))
	if err != nil {
		return mapCommandError(fmt.Errorf("load config: %w", err))
	}

	logger, logCloser, err := applog.New(cfg.LogOptions(), cmd.ErrOrStderr())
	if err != nil {
		return mapCommandError(fmt.Errorf("open log: %w", err))
	}
	defer logCloser.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewPrometheus(reg)
	if err != nil {
		return mapCommandError(fmt.Errorf("register metrics: %w", err))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	handle := detectMediumFn(ctx, cfg.Environment(), medium.WithLogger(logger))
	defer handle.Close()

	waitCtx, cancel := context.WithTimeout(ctx, deps.globals.Timeout)
	defer cancel()
	if _, err := handle.Await(waitCtx); err != nil {
		return mapCommandError(fmt.Errorf("%w: %s: %w", errStorageUnavailable, handle.Kind(), err))
	}

	return mapCommandError(fn(ctx, &storageApp{
		cfg:      cfg,
		logger:   logger,
		adapter:  storage.New(handle, storage.WithLogger(logger), storage.WithRecorder(recorder)),
		recorder: recorder,
		gatherer: reg,
		timeout:  deps.globals.Timeout,
	}))
}

// withApp opens storage and waits for the snippet list before calling fn.
// Pending saves are flushed before it returns.
func withApp(cmd *cobra.Command, deps commandDeps, fn func(context.Context, *app) error) error {
	return withStorage(cmd, deps, func(ctx context.Context, s *storageApp) (err error) {
		states := syncstate.NewRegistry(s.adapter, syncstate.WithLogger(s.logger), syncstate.WithRecorder(s.recorder))
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
			defer cancel()
			if cerr := states.Close(closeCtx); cerr != nil && err == nil {
				err = fmt.Errorf("flush snippets: %w", cerr)
			}
		}()

		svc, err := snippet.Open(ctx, states,
			snippet.WithLanguage(s.cfg.Language()),
			snippet.WithLogger(s.logger),
		)
		if err != nil {
			return err
		}
		waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if err := svc.WaitReady(waitCtx); err != nil {
			return fmt.Errorf("%w: %w", errStorageUnavailable, err)
		}

		return fn(ctx, &app{
			cfg:      s.cfg,
			logger:   s.logger,
			svc:      svc,
			gatherer: s.gatherer,
		})
	})
}
