package schedule

import (
	"iter"
	"slices"

	"github.com/mzeryck/widgetsched/pkg/slot"
)

// Entry is a maximal run of consecutive slots assigned to one widget.
// Start and End are both inclusive.
type Entry struct {
	Widget string     `json:"widget"`
	Start  slot.Index `json:"start"`
	End    slot.Index `json:"end"`
}

// Len returns the number of slots covered by e.
func (e Entry) Len() int {
	return int(e.End-e.Start) + 1
}

// Description renders e as its start and end-exclusive boundary times.
func (e Entry) Description() string {
	return e.Start.Display() + "-" + (e.End + 1).Display()
}

// All yields the entries of s in timeline order. Empty runs produce no
// entry. The sequence reads s lazily and may be ranged over repeatedly.
func (s *Schedule) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		var (
			name  string
			start slot.Index
		)
		// index PerDay is a sentinel that always differs from the run
		// in progress, flushing the final entry.
		for i := slot.Index(0); i <= slot.PerDay; i++ {
			cur := ""
			if i < slot.PerDay {
				cur = s.Times[i]
			}
			if i < slot.PerDay && cur == name {
				continue
			}
			if name != "" {
				if !yield(Entry{Widget: name, Start: start, End: i - 1}) {
					return
				}
			}
			name, start = cur, i
		}
	}
}

// Entries returns all entries of s.
func (s *Schedule) Entries() []Entry {
	return slices.Collect(s.All())
}

// EntryAt returns the entry covering slot i.
func (s *Schedule) EntryAt(i slot.Index) (Entry, bool) {
	if !i.Valid() || s.Times[i] == "" {
		return Entry{}, false
	}
	for e := range s.All() {
		if e.Start <= i && i <= e.End {
			return e, true
		}
	}
	return Entry{}, false
}
