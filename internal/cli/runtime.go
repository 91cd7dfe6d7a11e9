package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/rewards/internal/config"
	"github.com/roach88/rewards/internal/engine"
	"github.com/roach88/rewards/internal/localhost"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/pebblestore"
	"github.com/roach88/rewards/internal/store"
)

// Files under the data directory.
const (
	recordsFile = "rewards.db"
	blobsDir    = "blobs"
)

// runtime is an engine wired to local storage for one command.
type runtime struct {
	cfg     config.Config
	log     *slog.Logger
	records *store.Store
	pebble  *pebblestore.DB
	loop    *engine.Loop
	host    *localhost.Host
	engine  *engine.Engine
	events  *recorder
}

// openRuntime loads the configuration and opens the data directory.
// The caller must call close.
func openRuntime(opts *RootOptions, stderr io.Writer) (*runtime, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}

	log := newLogger(stderr, cfg.LogLevel, opts.Verbose)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create data dir", err)
	}

	rt := &runtime{cfg: cfg, log: log}

	dbPath := filepath.Join(cfg.DataDir, recordsFile)
	log.Debug("opening database", "path", dbPath)
	rt.records, err = store.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	var blobs localhost.BlobStore = rt.records
	if cfg.BlobBackend == config.BackendPebble {
		dir := filepath.Join(cfg.DataDir, blobsDir)
		log.Debug("opening blob store", "path", dir)
		rt.pebble, err = pebblestore.Open(pebblestore.Options{
			DataDir: dir,
			Fsync:   pebblestore.FsyncModeAlways,
		})
		if err != nil {
			_ = rt.records.Close()
			return nil, WrapExitError(ExitCommandError, "failed to open blob store", err)
		}
		blobs = rt.pebble
	}

	rt.loop = engine.NewLoop(log)
	rt.events = newRecorder(localhost.LogNotifier{Log: log})
	rt.host = localhost.New(blobs, rt.records, rt.loop,
		localhost.WithLogger(log.With("component", "host")),
		localhost.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		localhost.WithNotifier(rt.events),
	)
	rt.engine = engine.New(rt.host,
		engine.WithLoop(rt.loop),
		engine.WithLogger(log),
		engine.WithEndpoints(engine.Endpoints{
			Ledger:    cfg.Endpoints.Ledger,
			Balance:   cfg.Endpoints.Balance,
			Publisher: cfg.Endpoints.Publisher,
		}),
		engine.WithIntervals(engine.Intervals{
			PublisherList: config.Seconds(cfg.Intervals.PublisherList),
			Grant:         config.Seconds(cfg.Intervals.Grant),
			Reconcile:     config.Seconds(cfg.Intervals.Reconcile),
		}),
	)
	rt.host.SetTimerHandler(rt.engine.OnTimer)
	return rt, nil
}

func (rt *runtime) close() {
	rt.host.Close()
	if rt.pebble != nil {
		if err := rt.pebble.Close(); err != nil {
			rt.log.Error("error closing blob store", "error", err)
		}
	}
	if err := rt.records.Close(); err != nil {
		rt.log.Error("error closing database", "error", err)
	}
}

func newLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// session runs the event loop while fn executes. The loop stops when fn
// returns; fn's error is the session's error.
func (rt *runtime) session(ctx context.Context, fn func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := rt.loop.Run(gctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer rt.loop.Stop()
		return fn(gctx)
	})
	return g.Wait()
}

// call runs fn on the loop and waits for it.
func (rt *runtime) call(ctx context.Context, name string, fn func()) error {
	done := make(chan struct{})
	if !rt.loop.Post(name, func() {
		defer close(done)
		fn()
	}) {
		return NewExitError(ExitCommandError, "event loop stopped")
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return WrapExitError(ExitCommandError, "interrupted", ctx.Err())
	}
}

// await returns the next notification called name, skipping others.
func (rt *runtime) await(ctx context.Context, name string) (notification, error) {
	for {
		select {
		case n := <-rt.events.ch:
			if n.Name == name {
				return n, nil
			}
			rt.log.Debug("skipping notification", "name", n.Name, "waiting_for", name)
		case <-ctx.Done():
			return notification{}, WrapExitError(ExitCommandError, "timed out waiting for "+name, ctx.Err())
		}
	}
}

// initialize loads persisted state and returns the lifecycle result:
// OK for an existing wallet, NOT_FOUND when none has been created.
func (rt *runtime) initialize(ctx context.Context) (model.Result, error) {
	var initErr error
	if err := rt.call(ctx, "initialize", func() { initErr = rt.engine.Initialize() }); err != nil {
		return "", err
	}
	if initErr != nil {
		return "", WrapExitError(ExitFailure, "initialize", initErr)
	}
	n, err := rt.await(ctx, eventWalletInitialized)
	if err != nil {
		return "", err
	}
	return n.Result, nil
}

// requireWallet initializes and fails unless a wallet exists.
func (rt *runtime) requireWallet(ctx context.Context) error {
	result, err := rt.initialize(ctx)
	if err != nil {
		return err
	}
	switch result {
	case model.ResultOK:
		return nil
	case model.ResultNotFound:
		return NewExitError(ExitFailure, "no wallet yet, run 'rewards wallet create'")
	default:
		return resultError("failed to load wallet", result)
	}
}

// withRuntime opens a runtime, runs fn inside a session bounded by the
// command timeout, and closes everything.
func withRuntime(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, rt *runtime) error) error {
	rt, err := openRuntime(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, opts.Timeout)
	defer cancel()

	return rt.session(ctx, func(ctx context.Context) error {
		return fn(ctx, rt)
	})
}

func resultError(message string, result model.Result) *ExitError {
	return WrapExitError(ExitFailure, message, fmt.Errorf("result %s", result))
}
