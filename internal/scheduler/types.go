package scheduler

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// BoundaryCron fires at the start of every half-hour slot.
const BoundaryCron = "0,30 * * * *"

// Event is a pending trigger in the scheduler heap.
type Event struct {
	// Key is handed to the trigger callback.
	Key string
	// TriggerAt is the wall-clock time the event fires.
	TriggerAt time.Time
	// CronExpr re-arms the event after it fires. Empty means one-shot.
	CronExpr string
}

// Recurring returns an event for key firing on expr, armed for the first
// tick after from.
func Recurring(key, expr string, from time.Time) (Event, error) {
	if !gronx.IsValid(expr) {
		return Event{}, fmt.Errorf("invalid cron expression %q", expr)
	}
	next, err := nextOccurrence(expr, from)
	if err != nil {
		return Event{}, err
	}
	return Event{Key: key, TriggerAt: next, CronExpr: expr}, nil
}
