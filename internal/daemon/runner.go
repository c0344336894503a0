// Package daemon runs widgetsched in the background: it re-renders the
// scheduled widget at every slot boundary, reloads when sources or the
// schedule record change, and pushes each render to RPC clients.
package daemon

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/internal/scheduler"
	"github.com/mzeryck/widgetsched/internal/server"
	"github.com/mzeryck/widgetsched/internal/watch"
	"github.com/mzeryck/widgetsched/pkg/logger"
	"github.com/mzeryck/widgetsched/pkg/schedule"
)

var (
	// ErrAlreadyRunning is returned when Start() is called on a running daemon.
	ErrAlreadyRunning = errors.New("daemon is already running")

	// ErrShutdownTimeout is returned when shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")

	ErrNoState = errors.New("daemon has no schedule state")
)

const renderKey = "render"

type Config struct {
	// Cron decides when the scheduled widget is rendered. Defaults to
	// every slot boundary.
	Cron string

	// WatchDirs are watched for source and record changes. Empty
	// disables reloading.
	WatchDirs []string

	// WatchDelay debounces change bursts.
	WatchDelay time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// A zero value means no timeout.
	ShutdownTimeout time.Duration
}

// Dependencies holds the collaborators of the runner.
type Dependencies struct {
	State *State

	// Notifier, if set, receives a push after every scheduled render.
	Notifier *server.Notifier

	// Serve runs alongside the daemon until its context ends, typically
	// the RPC server.
	Serve func(ctx context.Context) error

	// ShutdownFunc is called during shutdown to clean up resources.
	// If nil, no cleanup function is called.
	ShutdownFunc func() error

	Log logger.Logger
	Now func() time.Time
}

// Runner manages the daemon lifecycle.
type Runner struct {
	config  *Config
	deps    *Dependencies
	running bool
	mu      sync.Mutex
	cancel  context.CancelFunc
}

// New creates a runner. Nil config or deps fall back to defaults.
func New(config *Config, deps *Dependencies) *Runner {
	if config == nil {
		config = &Config{}
	}
	if config.Cron == "" {
		config.Cron = scheduler.BoundaryCron
	}
	if deps == nil {
		deps = &Dependencies{}
	}
	if deps.Log == nil {
		deps.Log = logger.NewNopLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Runner{config: config, deps: deps}
}

func (r *Runner) Config() *Config {
	return r.config
}

// Start loads the schedule, renders it if a boundary was missed, then
// serves until ctx is cancelled or Serve fails. On cancellation it runs
// ShutdownFunc and waits for Serve to return, both bounded by
// ShutdownTimeout.
func (r *Runner) Start(ctx context.Context) error {
	if r.deps.State == nil {
		return ErrNoState
	}
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.running = true
	r.mu.Unlock()
	defer r.cleanupOnStop()

	st := r.deps.State
	_ = st.Reload()

	sched := scheduler.New(ctx, func(string) { r.render(ctx) })
	ev, err := scheduler.Recurring(renderKey, r.config.Cron, r.deps.Now())
	if err != nil {
		return err
	}
	sched.Add(ev)
	if scheduler.Missed(r.config.Cron, st.LastRender(), r.deps.Now()) {
		r.render(ctx)
	}

	if len(r.config.WatchDirs) > 0 {
		for _, d := range r.config.WatchDirs {
			if err := st.store.EnsureDir(d); err != nil {
				return err
			}
		}
		w := &watch.Watcher{
			Dirs:     r.config.WatchDirs,
			Match:    watch.Extensions(exporter.SourceExt, schedule.RecordExt),
			Delay:    r.config.WatchDelay,
			Log:      r.deps.Log,
			OnChange: func(names []string) { r.changed(ctx, names) },
		}
		go w.Run(ctx)
	}

	var serveErr chan error
	if r.deps.Serve != nil {
		serveErr = make(chan error, 1)
		go func() { serveErr <- r.deps.Serve(ctx) }()
	}
	select {
	case <-ctx.Done():
		r.deps.Log.Info("daemon: shutting down")
		return r.executeShutdownFunc(serveErr)
	case err := <-serveErr:
		return err
	}
}

// changed reloads after a record change and re-renders either way.
func (r *Runner) changed(ctx context.Context, names []string) {
	r.deps.Log.Debug("changed: %s", strings.Join(names, ", "))
	for _, n := range names {
		if n == "" || strings.HasSuffix(n, schedule.RecordExt) {
			_ = r.deps.State.Reload()
			break
		}
	}
	r.render(ctx)
}

func (r *Runner) render(ctx context.Context) {
	res, err := r.deps.State.renderScheduled(ctx, r.deps.Now())
	switch {
	case errors.Is(err, schedule.ErrNotConfigured):
		return
	case err != nil:
		r.deps.Log.Error("render: %v", err)
		return
	}
	r.deps.Log.Info("rendered %s in %s (cache hit: %t)", res.Widget, res.Elapsed, res.CacheHit)
	if r.deps.Notifier != nil {
		r.deps.Notifier.Broadcast(ctx, server.MethodRendered, server.RenderResponse(res))
	}
}

func (r *Runner) cleanupOnStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	if r.cancel != nil {
		r.cancel()
	}
}

// executeShutdownFunc calls ShutdownFunc, then waits for Serve (when
// serveErr is non-nil) to drain.
func (r *Runner) executeShutdownFunc(serveErr <-chan error) error {
	fn := func() error {
		var err error
		if r.deps.ShutdownFunc != nil {
			err = r.deps.ShutdownFunc()
		}
		if serveErr != nil {
			if serr := <-serveErr; err == nil {
				err = serr
			}
		}
		return err
	}
	if r.config.ShutdownTimeout > 0 {
		return r.executeWithTimeout(fn, r.config.ShutdownTimeout)
	}
	return fn()
}

func (r *Runner) executeWithTimeout(fn func() error, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (r *Runner) isRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
