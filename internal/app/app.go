// Package app wires configuration, storage, scheduling and AI services into
// one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/lchelper/lchelper/internal/config"
	"github.com/lchelper/lchelper/internal/digest"
	"github.com/lchelper/lchelper/internal/explain"
	"github.com/lchelper/lchelper/internal/llm"
	"github.com/lchelper/lchelper/internal/logging"
	"github.com/lchelper/lchelper/internal/problems"
	"github.com/lchelper/lchelper/internal/server"
	"github.com/lchelper/lchelper/internal/spacedrep"
	"github.com/lchelper/lchelper/internal/store"
)

// Options selects the config file and overrides.
type Options struct {
	ConfigPath string

	// DBPath beats the config file and LCH_DB.
	DBPath string

	// LogOut receives console logs; nil means stderr.
	LogOut io.Writer

	// Quiet raises the log level to warn for short CLI commands.
	Quiet bool
}

// App holds the wired services.
type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	Store     *store.Store
	Scheduler *spacedrep.Scheduler
	Problems  *problems.Service
	Explainer *explain.Generator

	closers []io.Closer
}

// Open loads configuration and opens the database.
func Open(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.DBPath != "" {
		cfg.DB = opts.DBPath
	}
	if opts.Quiet && logging.ParseLevel(cfg.Log.Level, zerolog.InfoLevel) < zerolog.WarnLevel {
		cfg.Log.Level = "warn"
	}

	log, logCloser, err := logging.New(cfg.Log, opts.LogOut)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log, closers: []io.Closer{logCloser}}

	if err := a.open(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) open(ctx context.Context) error {
	dbPath := a.Config.DB
	var err error
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
	} else if err := store.EnsureDir(dbPath); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.Store = st
	a.closers = append(a.closers, st)
	a.Log.Debug().Str("db", dbPath).Msg("database opened")

	ec, err := a.Config.Engine()
	if err != nil {
		return err
	}
	engine, err := spacedrep.NewEngine(ec, spacedrep.WithLogger(a.Log))
	if err != nil {
		return err
	}
	a.Scheduler = spacedrep.NewScheduler(engine, st.RevisionRepo(), a.Log)

	provider, timeout := a.provider(ctx)
	ecfg := explain.DefaultConfig()
	ecfg.Timeout = timeout
	a.Explainer = explain.NewGenerator(provider, st.ProblemRepo(), st.ExplanationRepo(), ecfg, a.Log)

	// A nil *Generator must not reach the interface.
	var ex problems.Explainer
	if a.Explainer.Enabled() {
		ex = a.Explainer
	}
	a.Problems = problems.NewService(st, a.Scheduler, ex, a.Log)
	return nil
}

// provider builds the configured LLM provider, or returns nil when AI is
// switched off or misconfigured. Scheduling never depends on it.
func (a *App) provider(ctx context.Context) (llm.Provider, time.Duration) {
	lc, err := a.Config.LLMSettings()
	if err != nil {
		a.Log.Warn().Err(err).Msg("ai explanations disabled")
		return nil, 0
	}
	if !lc.Enabled() {
		return nil, lc.Timeout
	}
	p, err := llm.NewProvider(ctx, lc, a.Store.EventRepo(), a.Log)
	if err != nil {
		a.Log.Warn().Err(err).Str("provider", lc.Provider).Msg("ai explanations disabled")
		return nil, lc.Timeout
	}
	a.Log.Debug().Str("provider", lc.Provider).Str("model", p.ModelID()).Msg("llm provider ready")
	return p, lc.Timeout
}

// Serve runs the HTTP API, and the digest when enabled, until ctx ends.
func (a *App) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.Config.Addr
	}

	if a.Config.Digest.Enabled {
		d, err := digest.New(a.Problems, a.Config.Digest.Spec, a.Config.Location(), a.Log)
		if err != nil {
			return err
		}
		if err := d.Start(ctx); err != nil {
			return err
		}
		defer d.Stop()
	}

	return server.New(a.Problems, a.Explainer, a.Log).ListenAndServe(ctx, addr)
}

// Close waits for background explanations, then releases the database
// and the log file.
func (a *App) Close() error {
	if a.Explainer != nil {
		a.Explainer.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
