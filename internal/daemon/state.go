package daemon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/pkg/logger"
	"github.com/mzeryck/widgetsched/pkg/schedule"
)

// State is the daemon's view of one schedule. Every method holds the
// same lock, so renders, reloads and RPC reads never interleave.
type State struct {
	name  string
	store schedule.Store
	exp   *exporter.Exporter
	log   logger.Logger

	mu         sync.Mutex
	sched      *schedule.Schedule
	loadErr    error
	lastRender time.Time
}

func NewState(store schedule.Store, name string, exp *exporter.Exporter, l logger.Logger) *State {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &State{
		name:    name,
		store:   store,
		exp:     exp,
		log:     l,
		loadErr: schedule.ErrNotConfigured,
	}
}

// Reload reads the schedule record again. A failed load keeps serving
// nothing rather than a stale schedule.
func (s *State) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, err := schedule.Load(s.store, s.name)
	s.sched, s.loadErr = sched, err
	switch {
	case errors.Is(err, schedule.ErrNotConfigured):
		s.log.Warning("schedule %q is not set up yet", s.name)
	case err != nil:
		s.log.Error("load schedule %q: %v", s.name, err)
	default:
		s.log.Info("loaded schedule %q", s.name)
	}
	return err
}

// Snapshot returns a copy of the loaded schedule.
func (s *State) Snapshot() (*schedule.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil, s.loadErr
	}
	c := *s.sched
	return &c, nil
}

func (s *State) Widgets() ([]exporter.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exp.Sources.List()
}

// Render renders widget, or the widget the schedule selects at at when
// widget is empty. It serves RPC callers and never counts as a scheduled
// render.
func (s *State) Render(ctx context.Context, widget string, at time.Time) (*exporter.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if widget != "" {
		return s.exp.Render(ctx, widget)
	}
	if s.sched == nil {
		return nil, s.loadErr
	}
	return s.exp.Run(ctx, s.sched, at)
}

// renderScheduled renders the widget selected at now and records now as
// the last scheduled render.
func (s *State) renderScheduled(ctx context.Context, now time.Time) (*exporter.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil, s.loadErr
	}
	res, err := s.exp.Run(ctx, s.sched, now)
	if err == nil {
		s.lastRender = now
	}
	return res, err
}

// LastRender is the time of the last successful scheduled render.
func (s *State) LastRender() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRender
}
