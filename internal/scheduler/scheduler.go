package scheduler

import (
	"container/heap"
	"context"
	"time"

	"github.com/adhocore/gronx"
)

const maxSleepCap = 60 * time.Second

// Scheduler owns the event heap. All mutations go through channels to the
// run goroutine.
type Scheduler struct {
	addChan chan Event
	ctx     context.Context
}

// New starts a scheduler that calls onTrigger with the event key whenever
// an event fires. It stops when ctx is cancelled.
func New(ctx context.Context, onTrigger func(key string)) *Scheduler {
	s := &Scheduler{
		addChan: make(chan Event, 64),
		ctx:     ctx,
	}
	go s.run(onTrigger)
	return s
}

func (s *Scheduler) Add(e Event) {
	select {
	case s.addChan <- e:
	case <-s.ctx.Done():
	}
}

func (s *Scheduler) run(onTrigger func(string)) {
	h := &eventHeap{}
	heap.Init(h)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			return nil
		}
		dur := time.Until((*h)[0].TriggerAt)
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()
	for {
		select {
		case <-s.ctx.Done():
			return

		case e := <-s.addChan:
			heapPush(h, e)
			timerCh = resetTimer()

		case <-timerCh:
			now := time.Now()
			for h.Len() > 0 && !(*h)[0].TriggerAt.After(now) {
				e := heapPop(h)
				onTrigger(e.Key)
				if e.CronExpr == "" {
					continue
				}
				if next, err := nextOccurrence(e.CronExpr, time.Now()); err == nil {
					e.TriggerAt = next
					heapPush(h, e)
				}
			}
			timerCh = resetTimer()
		}
	}
}

// nextOccurrence returns the first tick of expr strictly after start.
func nextOccurrence(expr string, start time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, start, false)
}

// Missed reports whether expr ticked in (last, now], meaning a run that
// last happened at last is overdue. A zero last always counts as missed.
func Missed(expr string, last, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	next, err := nextOccurrence(expr, last)
	if err != nil {
		return false
	}
	return !next.After(now)
}
