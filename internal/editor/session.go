// Package editor drives interactive edits of a schedule. Every operation
// gathers its input through a Prompter and then applies a single
// schedule mutation; a dismissed prompt leaves the schedule untouched.
package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/pkg/logger"
	"github.com/mzeryck/widgetsched/pkg/schedule"
	"github.com/mzeryck/widgetsched/pkg/slot"
)

type Session struct {
	Schedule *schedule.Schedule
	Sources  exporter.SourceLookup
	UI       Prompter
	Logger   logger.Logger
	// Now seeds the start picker of Add.
	Now func() time.Time
}

func NewSession(s *schedule.Schedule, sources exporter.SourceLookup, ui Prompter, l logger.Logger) *Session {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Session{Schedule: s, Sources: sources, UI: ui, Logger: l, Now: time.Now}
}

// Setup walks the user through creating the schedule called name and
// returns a session editing it.
func Setup(ctx context.Context, store schedule.Store, sources exporter.SourceLookup, ui Prompter, l logger.Logger, name string) (*Session, error) {
	ok, err := ui.Confirm(ctx,
		"Welcome to Widget Schedule! Make sure your schedule has the name you want before you begin.",
		fmt.Sprintf("Keep the name %q", name))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserCancelled
	}
	if err := ui.Notify(ctx, "Choose the widget that will display by default when no other widgets are scheduled."); err != nil {
		return nil, err
	}
	sess := NewSession(nil, sources, ui, l)
	def, err := sess.pickWidget(ctx)
	if err != nil {
		if errors.Is(err, ErrUserCancelled) {
			_ = ui.Notify(ctx, "You need to select a default widget.")
		}
		return nil, err
	}
	s := schedule.New(store, name, def)
	if err := s.Save(); err != nil {
		return nil, err
	}
	sess.Schedule = s
	sess.Logger.Info("created schedule %s with default widget %s", name, def)
	return sess, nil
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Session) pickWidget(ctx context.Context) (string, error) {
	widgets, err := s.Sources.List()
	if err != nil {
		return "", err
	}
	if len(widgets) == 0 {
		return "", ErrNoWidgets
	}
	return s.UI.PickWidget(ctx, widgets)
}

func (s *Session) pickTime(ctx context.Context, q TimeQuery) (slot.Index, error) {
	i, err := s.UI.PickTime(ctx, q)
	if err != nil {
		return slot.None, err
	}
	if !q.Contains(i) {
		return slot.None, fmt.Errorf("%w: %s must be between %s and %s",
			schedule.ErrInvalidRange, q.Label, q.Min.Clock(), q.Max.Clock())
	}
	return i, nil
}

// Rows lists the default row followed by every scheduled entry.
func (s *Session) Rows() []schedule.Row {
	return s.Schedule.Rows()
}

// Row returns row n as numbered by Rows.
func (s *Session) Row(n int) (schedule.Row, error) {
	rows := s.Rows()
	if n < 0 || n >= len(rows) {
		return schedule.Row{}, fmt.Errorf("%w: %d", ErrNoSuchRow, n)
	}
	return rows[n], nil
}

// Entry returns row n, which must be a timed row.
func (s *Session) Entry(n int) (schedule.Entry, error) {
	r, err := s.Row(n)
	if err != nil {
		return schedule.Entry{}, err
	}
	if r.Kind != schedule.RowTimed {
		return schedule.Entry{}, fmt.Errorf("%w: row %d is the default widget", ErrNoSuchRow, n)
	}
	return r.Entry, nil
}

func (s *Session) SetDefault(ctx context.Context) error {
	name, err := s.pickWidget(ctx)
	if err != nil {
		return err
	}
	if err := s.Schedule.SetDefault(name); err != nil {
		return err
	}
	s.Logger.Info("default widget is now %s", name)
	return nil
}

// ChangeWidget swaps the widget shown by row.
func (s *Session) ChangeWidget(ctx context.Context, row schedule.Row) (bool, error) {
	if row.Kind == schedule.RowDefault {
		if err := s.SetDefault(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
	name, err := s.pickWidget(ctx)
	if err != nil {
		return false, err
	}
	return s.Schedule.Rename(ctx, row.Entry, name)
}

func (s *Session) MoveStart(ctx context.Context, e schedule.Entry) (bool, error) {
	start, err := s.pickTime(ctx, TimeQuery{
		Label:   "Start time",
		Initial: e.Start,
		Min:     0,
		Max:     e.End,
	})
	if err != nil {
		return false, err
	}
	return s.Schedule.MoveStart(ctx, s.UI, e, start)
}

// MoveEnd asks for the boundary at which e should stop; the entry's new
// last slot is the one just before it.
func (s *Session) MoveEnd(ctx context.Context, e schedule.Entry) (bool, error) {
	end, err := s.pickTime(ctx, TimeQuery{
		Label:   "End time",
		Initial: e.End + 1,
		Min:     e.Start + 1,
		Max:     slot.EndOfDay,
	})
	if err != nil {
		return false, err
	}
	return s.Schedule.MoveEnd(ctx, s.UI, e, end-1)
}

func (s *Session) Delete(ctx context.Context, e schedule.Entry) (bool, error) {
	msg := fmt.Sprintf("Are you sure you want to delete the %s schedule for %s?", e.Description(), e.Widget)
	ok, err := s.UI.Confirm(ctx, msg, "Delete")
	if err != nil || !ok {
		return false, err
	}
	return s.Schedule.Delete(ctx, e)
}

// Add schedules a widget for a new time range.
func (s *Session) Add(ctx context.Context) (bool, error) {
	name, err := s.pickWidget(ctx)
	if err != nil {
		return false, s.cancelled(ctx, err, "No widget was chosen.")
	}
	start, err := s.pickTime(ctx, TimeQuery{
		Label:   "Start time",
		Initial: slot.FromTime(s.now()),
		Min:     0,
		Max:     slot.PerDay - 1,
	})
	if err != nil {
		return false, s.cancelled(ctx, err, "No start time was entered.")
	}
	end, err := s.pickTime(ctx, TimeQuery{
		Label:   "End time",
		Initial: start + 1,
		Min:     start + 1,
		Max:     slot.EndOfDay,
	})
	if err != nil {
		return false, s.cancelled(ctx, err, "No end time was entered.")
	}
	return s.Schedule.Add(ctx, s.UI, name, start, end-1)
}

func (s *Session) cancelled(ctx context.Context, err error, msg string) error {
	if errors.Is(err, ErrUserCancelled) {
		_ = s.UI.Notify(ctx, msg)
	}
	return err
}
