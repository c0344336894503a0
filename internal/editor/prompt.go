package editor

import (
	"context"
	"errors"

	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/pkg/slot"
)

var (
	// ErrUserCancelled is returned when the user dismisses a prompt. The
	// operation that asked is abandoned without writing anything.
	ErrUserCancelled = errors.New("cancelled")

	ErrUnknownWidget = errors.New("unknown widget")
	ErrNoSuchRow     = errors.New("no such row")
	ErrNoWidgets     = errors.New("no widgets found in the documents directory")
)

// TimeQuery describes a time picker. Min and Max bound the answer
// inclusively; an end picker may return slot.EndOfDay.
type TimeQuery struct {
	Label   string
	Initial slot.Index
	Min     slot.Index
	Max     slot.Index
}

// Contains reports whether i is an acceptable answer to q.
func (q TimeQuery) Contains(i slot.Index) bool {
	return i >= q.Min && i <= q.Max
}

// Prompter is the interactive side of an editing session.
//
// PickTime and PickWidget return ErrUserCancelled when dismissed. A
// dismissed Confirm is a plain "no".
type Prompter interface {
	Confirm(ctx context.Context, message, action string) (bool, error)
	PickTime(ctx context.Context, q TimeQuery) (slot.Index, error)
	PickWidget(ctx context.Context, widgets []exporter.Widget) (string, error)
	Notify(ctx context.Context, message string) error
}
