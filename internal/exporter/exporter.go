// Package exporter displays the widget a schedule selects for the current
// time. Sources are compiled into cached artifacts that are rebuilt only
// when the source changed after the last compilation, then run in an
// isolated goja runtime.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/dop251/goja"

	"github.com/mzeryck/widgetsched/pkg/logger"
	"github.com/mzeryck/widgetsched/pkg/schedule"
)

// State is a step of a single Run.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateCacheHit
	StateCacheMiss
	StateCompiling
	StateInvoking
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateCacheHit:
		return "cache-hit"
	case StateCacheMiss:
		return "cache-miss"
	case StateCompiling:
		return "compiling"
	case StateInvoking:
		return "invoking"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Observer is notified on every state transition. widget is empty until
// the schedule has been resolved.
type Observer func(s State, widget string)

// Result describes one rendered widget.
type Result struct {
	Widget   string `json:"widget"`
	CacheHit bool   `json:"cacheHit"`
	// Value is what the widget handed to Script.setWidget or, failing
	// that, what its body returned.
	Value     any           `json:"value"`
	Completed bool          `json:"completed"`
	Elapsed   time.Duration `json:"elapsed"`
}

type Exporter struct {
	Sources SourceLookup
	Cache   Cache
	Logger  logger.Logger

	// Out receives print() output. Nil routes it to Logger.
	Out io.Writer
	// InWidget is exposed to widgets as config.runsInWidget.
	InWidget bool
	// Timeout bounds a single invocation; zero means DefaultTimeout.
	Timeout time.Duration
	Observe Observer
	// Now is the clock used for compilation timestamps.
	Now func() time.Time
}

// New returns an Exporter with the given collaborators and defaults for
// everything else.
func New(sources SourceLookup, cache Cache, l logger.Logger) *Exporter {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Exporter{
		Sources: sources,
		Cache:   cache,
		Logger:  l,
		Timeout: DefaultTimeout,
		Now:     time.Now,
	}
}

func (e *Exporter) emit(s State, widget string) {
	if e.Observe != nil {
		e.Observe(s, widget)
	}
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Run renders the widget s selects at now.
func (e *Exporter) Run(ctx context.Context, s *schedule.Schedule, now time.Time) (*Result, error) {
	e.emit(StateIdle, "")
	e.emit(StateResolving, "")
	return e.Render(ctx, s.Resolve(now))
}

// Render compiles (when stale) and invokes the widget called name.
func (e *Exporter) Render(ctx context.Context, name string) (*Result, error) {
	start := time.Now()
	src, err := e.Sources.Source(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrConfigurationMissing, name)
		}
		return nil, err
	}
	art, hit, err := e.artifact(ctx, src)
	if err != nil {
		return nil, err
	}

	e.emit(StateInvoking, name)
	res, err := e.invoke(ctx, name, art.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	res.CacheHit = hit
	res.Elapsed = time.Since(start)
	e.emit(StateDone, name)
	return res, nil
}

// artifact returns a compiled artifact for src, rebuilding it unless the
// cached one is at least as new as the source.
func (e *Exporter) artifact(ctx context.Context, src Source) (Artifact, bool, error) {
	a, ok, err := e.Cache.Get(ctx, src.Name)
	if err != nil {
		return Artifact{}, false, err
	}
	if ok && a.Fresh(src.ModTime) {
		e.emit(StateCacheHit, src.Name)
		return a, true, nil
	}
	e.emit(StateCacheMiss, src.Name)
	e.emit(StateCompiling, src.Name)
	a = Artifact{
		Name:       src.Name,
		Content:    Compile(src.Name, src.Text),
		CompiledAt: e.now(),
	}
	if err := e.Cache.Put(ctx, a); err != nil {
		return Artifact{}, false, fmt.Errorf("store artifact %s: %w", src.Name, err)
	}
	e.Logger.Info("compiled widget %s", src.Name)
	return a, false, nil
}

func (e *Exporter) invoke(ctx context.Context, name string, artifact []byte) (*Result, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dirs, _ := e.Sources.(*DirSources)
	rt, err := newRuntime(runtimeOptions{
		name:     name,
		artifact: artifact,
		sources:  dirs,
		out:      e.Out,
		inWidget: e.InWidget,
		l:        e.Logger,
	})
	if err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		rt.Interrupt(ctx.Err())
	})
	defer stop()

	fn, err := rt.entryPoint()
	if err != nil {
		return nil, interrupted(ctx, err)
	}
	v, err := fn(goja.Undefined())
	if err != nil {
		return nil, interrupted(ctx, err)
	}
	v, err = settle(v)
	if err != nil {
		return nil, err
	}
	res := &Result{Widget: name, Completed: rt.completed}
	if rt.widget != nil {
		res.Value = exportValue(rt.widget)
	} else {
		res.Value = exportValue(v)
	}
	return res, nil
}

// interrupted prefers the context error over goja's interrupt wrapper.
func interrupted(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
