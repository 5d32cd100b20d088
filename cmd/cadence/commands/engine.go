package commands

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/teranos/cadence/am"
	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/focus"
	"github.com/teranos/cadence/history"
	"github.com/teranos/cadence/input"
	"github.com/teranos/cadence/logger"
	"github.com/teranos/cadence/runner"
	"github.com/teranos/cadence/sequence"
)

const (
	// fetchTimeout bounds remote document downloads
	fetchTimeout = 30 * time.Second

	// shutdownTimeout bounds how long commands wait for in-flight runs
	// after a stop request
	shutdownTimeout = 10 * time.Second
)

// engine bundles the assembled runtime pieces a command needs to execute
// sequences: the loaded store, the scheduler wired to the configured
// driver and gate, and the optional run-history database.
type engine struct {
	cfg     *am.Config
	store   *sequence.Store
	docPath string
	names   []string
	sched   *runner.Scheduler
	runs    *history.Store

	database *sql.DB
	gate     focus.Gate
}

// buildEngine assembles a runnable engine from configuration: document
// load, input driver, jitter, focus gate, run-history recording, and the
// scheduler tying them together. docPath overrides the configured
// document path when non-empty.
func buildEngine(docPath string) (*engine, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	store, resolved, names, err := loadDocument(docPath, cfg)
	if err != nil {
		return nil, err
	}

	driver := buildDriver(cfg)
	jitter := input.NewJitter(cfg.Input.Seed)
	exec := input.NewExecutor(driver, jitter)

	gate, err := buildGate(cfg)
	if err != nil {
		return nil, err
	}

	var opts []runner.Option
	var database *sql.DB
	var runs *history.Store
	if cfg.Database.Enabled {
		database, err = openDatabase(cfg.Database.Path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open history database")
		}
		runs = history.NewStore(database)
		opts = append(opts, runner.WithRecorder(runs))
	}

	sched := runner.NewScheduler(store, exec, jitter, gate, opts...)

	return &engine{
		cfg:      cfg,
		store:    store,
		docPath:  resolved,
		names:    names,
		sched:    sched,
		runs:     runs,
		database: database,
		gate:     gate,
	}, nil
}

// Close releases the engine's external resources. The scheduler itself
// is stopped by the owning command before Close.
func (e *engine) Close() {
	if closer, ok := e.gate.(interface{ Close() }); ok {
		closer.Close()
	}
	if e.database != nil {
		if err := e.database.Close(); err != nil {
			logger.Warnw("Failed to close history database", logger.FieldError, err)
		}
	}
}

// loadDocument resolves, optionally fetches, and loads a sequence
// document. An empty path falls back to the configured document path,
// then to the last-used path from host settings.
func loadDocument(path string, cfg *am.Config) (*sequence.Store, string, []string, error) {
	if path == "" {
		path = cfg.Document.Path
	}
	if path == "" {
		if settings, err := am.LoadSettings(); err == nil {
			path = settings.DocumentPath
		}
	}
	if path == "" {
		return nil, "", nil, errors.New("no sequence document: pass --document or set document.path in config")
	}

	resolved, remote, err := sequence.ResolvePath(path)
	if err != nil {
		return nil, "", nil, errors.Wrapf(err, "failed to resolve document path %s", path)
	}
	if remote {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		local, err := sequence.Fetch(ctx, path, documentCacheDir())
		if err != nil {
			return nil, "", nil, err
		}
		logger.Infow("Fetched remote sequence document",
			logger.FieldPath, local,
			"source", path,
		)
		resolved = local
	}

	store := sequence.NewStore()
	if _, err := store.LoadFile(resolved); err != nil {
		return nil, "", nil, errors.Wrapf(err, "failed to load document %s", resolved)
	}

	return store, resolved, store.Names(), nil
}

// documentCacheDir returns the cache directory for fetched documents.
func documentCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cadence-cache")
	}
	return filepath.Join(home, ".cadence", "cache")
}

// buildDriver selects the configured input driver and applies the
// global event-rate cap when one is set.
func buildDriver(cfg *am.Config) input.Driver {
	var driver input.Driver
	if cfg.Input.Driver == "dryrun" {
		driver = input.NewRecorder()
	} else {
		driver = input.NewRobotgoDriver()
	}
	if cfg.Input.MaxEventsPerSecond > 0 {
		driver = input.RateLimited(driver, cfg.Input.MaxEventsPerSecond)
	}
	return driver
}

// buildGate constructs the focus gate from configuration. With gating
// disabled every run proceeds immediately. When the X11 connection
// cannot be established and a target process is configured, presence of
// that process stands in for window focus; with no process configured
// the command refuses to run ungated.
func buildGate(cfg *am.Config) (focus.Gate, error) {
	if !cfg.Gate.Enabled {
		return focus.Static{Answer: true}, nil
	}

	interval := time.Duration(cfg.Gate.CheckIntervalSeconds * float64(time.Second))
	gate, err := focus.NewX11Gate(cfg.Gate.Titles, interval)
	if err == nil {
		return gate, nil
	}

	if cfg.Gate.Process != "" {
		logger.Warnw("X11 focus detection unavailable, gating on process presence instead",
			logger.FieldError, err,
			"process", cfg.Gate.Process,
		)
		return focus.NewProcessGate(cfg.Gate.Process, interval), nil
	}

	return nil, errors.Wrap(err, "focus gating is enabled but X11 is unavailable")
}
