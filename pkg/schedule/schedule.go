// Package schedule implements the partitioned day timeline widgets are
// scheduled on.
//
// A Schedule holds one widget name per half-hour slot plus a default
// widget used for unassigned slots. Every edit goes through Assign, which
// detects overlap with other widgets, asks for confirmation when needed
// and persists the flat record immediately afterwards.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mzeryck/widgetsched/pkg/slot"
)

// Confirmer asks the user to approve a destructive change. A dismissed
// prompt is reported as (false, nil).
type Confirmer interface {
	Confirm(ctx context.Context, message, action string) (bool, error)
}

// OverwriteMessage is the prompt shown when an assignment would replace
// slots owned by another widget.
const OverwriteMessage = "This will overwrite other parts of the schedule. Do you want to continue?"

type Schedule struct {
	// Name identifies the schedule and keys its record in the store.
	Name string
	// DefaultWidget is displayed whenever the current slot is empty.
	DefaultWidget string
	// Times holds the widget assigned to every slot, "" when unassigned.
	Times [slot.PerDay]string

	store Store
}

// record is the persisted shape of a schedule.
type record struct {
	DefaultWidget string   `json:"defaultWidget"`
	Times         []string `json:"times"`
}

// New creates an empty schedule with the given default widget. Nothing is
// written until Save is called.
func New(store Store, name, defaultWidget string) *Schedule {
	return &Schedule{
		Name:          name,
		DefaultWidget: defaultWidget,
		store:         store,
	}
}

// Load reads the schedule called name from store. It returns
// ErrNotConfigured when no record exists.
func Load(store Store, name string) (*Schedule, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	key := RecordKey(name)
	ok, err := store.Exists(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotConfigured
	}
	b, err := store.Read(key)
	if err != nil {
		return nil, err
	}
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, err.Error())
	}
	s := New(store, name, r.DefaultWidget)
	switch len(r.Times) {
	case 0:
	case slot.PerDay:
		copy(s.Times[:], r.Times)
	default:
		return nil, fmt.Errorf("%w: %d slots, expected %d", ErrCorruptRecord, len(r.Times), slot.PerDay)
	}
	return s, nil
}

// MarshalJSON encodes the schedule as its flat record.
func (s *Schedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(record{
		DefaultWidget: s.DefaultWidget,
		Times:         s.Times[:],
	})
}

// Save writes the schedule's record to its store.
func (s *Schedule) Save() error {
	if s.store == nil {
		return ErrNoStore
	}
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return s.store.Write(RecordKey(s.Name), b)
}

// LastModified returns when the record was last written.
func (s *Schedule) LastModified() (time.Time, error) {
	if s.store == nil {
		return time.Time{}, ErrNoStore
	}
	return s.store.LastModified(RecordKey(s.Name))
}

// Resolve returns the widget that should display at now.
func (s *Schedule) Resolve(now time.Time) string {
	if name := s.Times[slot.FromTime(now)]; name != "" {
		return name
	}
	return s.DefaultWidget
}

// Conflicts reports whether any slot in [start, end] is assigned to a
// widget other than name.
func (s *Schedule) Conflicts(name string, start, end slot.Index) bool {
	for i := start; i <= end; i++ {
		if cur := s.Times[i]; cur != "" && cur != name {
			return true
		}
	}
	return false
}

func validRange(start, end slot.Index) error {
	if !start.Valid() || !end.Valid() || end < start {
		return fmt.Errorf("%w: %s-%s", ErrInvalidRange, start.Clock(), (end + 1).Clock())
	}
	return nil
}

// Assign sets every slot in [start, end] to name ("" clears them) and
// persists the schedule. If the write fails the slots are restored, so the
// schedule never runs ahead of its record.
//
// When force is false and the range holds slots of another widget, c is
// asked first; if it declines, Assign returns false and leaves the
// schedule untouched.
func (s *Schedule) Assign(ctx context.Context, c Confirmer, name string, start, end slot.Index, force bool) (bool, error) {
	if err := validRange(start, end); err != nil {
		return false, err
	}
	if !force && s.Conflicts(name, start, end) {
		if c == nil {
			return false, nil
		}
		ok, err := c.Confirm(ctx, OverwriteMessage, "Continue")
		if err != nil || !ok {
			return false, err
		}
	}
	prev := s.Times
	for i := start; i <= end; i++ {
		s.Times[i] = name
	}
	if err := s.Save(); err != nil {
		s.Times = prev
		return false, err
	}
	return true, nil
}

// SetDefault replaces the default widget and persists the schedule.
func (s *Schedule) SetDefault(name string) error {
	if name == "" {
		return ErrEmptyWidget
	}
	prev := s.DefaultWidget
	s.DefaultWidget = name
	if err := s.Save(); err != nil {
		s.DefaultWidget = prev
		return err
	}
	return nil
}

// Add schedules name over [start, end], asking c before replacing
// other widgets.
func (s *Schedule) Add(ctx context.Context, c Confirmer, name string, start, end slot.Index) (bool, error) {
	if name == "" {
		return false, ErrEmptyWidget
	}
	return s.Assign(ctx, c, name, start, end, false)
}

// Rename switches the widget displayed during e.
func (s *Schedule) Rename(ctx context.Context, e Entry, name string) (bool, error) {
	if name == "" {
		return false, ErrEmptyWidget
	}
	return s.Assign(ctx, nil, name, e.Start, e.End, true)
}

// Delete clears every slot of e.
func (s *Schedule) Delete(ctx context.Context, e Entry) (bool, error) {
	return s.Assign(ctx, nil, "", e.Start, e.End, true)
}

// MoveStart moves the first slot of e to newStart. Growing the entry may
// replace other widgets and asks c; shrinking only clears slots e owns.
func (s *Schedule) MoveStart(ctx context.Context, c Confirmer, e Entry, newStart slot.Index) (bool, error) {
	if !newStart.Valid() || newStart > e.End {
		return false, fmt.Errorf("%w: start %s after end %s", ErrInvalidRange, newStart.Clock(), (e.End + 1).Clock())
	}
	switch {
	case newStart < e.Start:
		return s.Assign(ctx, c, e.Widget, newStart, e.Start-1, false)
	case newStart > e.Start:
		return s.Assign(ctx, nil, "", e.Start, newStart-1, true)
	}
	return false, nil
}

// MoveEnd moves the last slot of e to newEnd (inclusive).
func (s *Schedule) MoveEnd(ctx context.Context, c Confirmer, e Entry, newEnd slot.Index) (bool, error) {
	if !newEnd.Valid() || newEnd < e.Start {
		return false, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange, (newEnd + 1).Clock(), e.Start.Clock())
	}
	switch {
	case newEnd > e.End:
		return s.Assign(ctx, c, e.Widget, e.End+1, newEnd, false)
	case newEnd < e.End:
		return s.Assign(ctx, nil, "", newEnd+1, e.End, true)
	}
	return false, nil
}
