// Package slot maps wall-clock times of day to the half-hour slots a
// schedule is partitioned into, and back.
//
// A day holds PerDay slots. Slot i covers the interval starting at
// i/2 hours and (i%2)*30 minutes. The date component of a time is ignored
// everywhere in this package.
package slot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Index addresses one 30-minute slot of the day.
type Index int

const (
	// PerDay is the number of slots in one day.
	PerDay = 48
	// Width is the duration covered by one slot.
	Width = 30 * time.Minute

	// None is the index returned when no slot was selected.
	None Index = -1
	// EndOfDay is the boundary after the last slot (24:00). It is only
	// valid as an end-exclusive boundary, never as a stored slot.
	EndOfDay Index = PerDay
)

var ErrInvalidTime = errors.New("invalid time of day, expected HH:MM on a half hour")

// Formatter renders a wall-clock time for display.
type Formatter func(time.Time) string

// DisplayFormatter is used by Index.Display. It defaults to the short
// 12-hour time style.
var DisplayFormatter Formatter = func(t time.Time) string {
	return t.Format(time.Kitchen)
}

// FromTime returns the slot containing the time of day of t.
func FromTime(t time.Time) Index {
	i := t.Hour() * 2
	if t.Minute() >= 30 {
		i++
	}
	return Index(i)
}

// Valid reports whether i addresses a stored slot.
func (i Index) Valid() bool {
	return i >= 0 && i < PerDay
}

// validBoundary reports whether i can be rendered as a time of day,
// which includes EndOfDay.
func (i Index) validBoundary() bool {
	return i >= 0 && i <= EndOfDay
}

// Time returns the instant slot i starts at on the calendar day of day.
// ok is false for None or any index outside [0, EndOfDay].
func (i Index) Time(day time.Time) (t time.Time, ok bool) {
	if !i.validBoundary() {
		return time.Time{}, false
	}
	minute := 0
	if i%2 != 0 {
		minute = 30
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, int(i)/2, minute, 0, 0, day.Location()), true
}

// Clock renders i as HH:MM. EndOfDay renders as 24:00.
func (i Index) Clock() string {
	if !i.validBoundary() {
		return "--:--"
	}
	minute := "00"
	if i%2 != 0 {
		minute = "30"
	}
	return fmt.Sprintf("%02d:%s", int(i)/2, minute)
}

// Display renders i with DisplayFormatter. Invalid indices render as an
// empty string.
func (i Index) Display() string {
	t, ok := i.Time(time.Now())
	if !ok {
		return ""
	}
	return DisplayFormatter(t)
}

func (i Index) String() string {
	return i.Clock()
}

// Parse reads an HH:MM time of day on a half-hour boundary and returns the
// slot starting at it.
func Parse(s string) (Index, error) {
	i, err := parseClock(s)
	if err != nil {
		return None, err
	}
	if !i.Valid() {
		return None, ErrInvalidTime
	}
	return i, nil
}

// ParseBoundary is like Parse but also accepts 24:00, returned as EndOfDay.
// It is used for end-exclusive pickers.
func ParseBoundary(s string) (Index, error) {
	return parseClock(s)
}

func parseClock(s string) (Index, error) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return None, ErrInvalidTime
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return None, ErrInvalidTime
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return None, ErrInvalidTime
	}
	switch {
	case h == 24 && m == 0:
		return EndOfDay, nil
	case h < 0 || h > 23:
		return None, ErrInvalidTime
	case m != 0 && m != 30:
		return None, ErrInvalidTime
	}
	return Index(h*2 + m/30), nil
}

