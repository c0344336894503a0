package schedule

// RowKind tells the editor rows apart.
type RowKind int

const (
	// RowDefault is the row of the default widget.
	RowDefault RowKind = iota
	// RowTimed is the row of a scheduled entry.
	RowTimed
)

func (k RowKind) String() string {
	switch k {
	case RowDefault:
		return "default"
	case RowTimed:
		return "timed"
	}
	return "unknown"
}

// Row is one line of the editor listing. Entry is only meaningful for
// RowTimed rows.
type Row struct {
	Kind   RowKind
	Widget string
	Entry  Entry
}

func (r Row) Description() string {
	if r.Kind == RowDefault {
		return "Default"
	}
	return r.Entry.Description()
}

// Rows lists the default row followed by one row per entry. Row numbers
// used by the editor are indices into this slice.
func (s *Schedule) Rows() []Row {
	rows := []Row{{Kind: RowDefault, Widget: s.DefaultWidget}}
	for e := range s.All() {
		rows = append(rows, Row{Kind: RowTimed, Widget: e.Widget, Entry: e})
	}
	return rows
}
