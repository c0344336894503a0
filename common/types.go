package common

import "time"

// VersionInfo answers system.getVersion.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"build_type,omitempty"`
}

// ScheduleRecord is the wire form of a schedule.
type ScheduleRecord struct {
	Name          string   `json:"name"`
	DefaultWidget string   `json:"default_widget"`
	Times         []string `json:"times"`
	// Modified is when the record was last saved, RFC 3339.
	Modified string `json:"modified,omitempty"`
}

// EntryInfo is one scheduled entry with its boundaries rendered as HH:MM.
type EntryInfo struct {
	Widget string `json:"widget"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	From   string `json:"from"`
	Until  string `json:"until"`
}

// CurrentParams asks which widget displays at At (now when zero).
type CurrentParams struct {
	At time.Time `json:"at,omitempty"`
}

type CurrentResponse struct {
	Widget string `json:"widget"`
	Slot   int    `json:"slot"`
	At     string `json:"at"`
}

// RenderParams renders Widget, or the scheduled widget when empty.
type RenderParams struct {
	Widget string    `json:"widget,omitempty"`
	At     time.Time `json:"at,omitempty"`
}

type RenderResponse struct {
	Widget   string `json:"widget"`
	CacheHit bool   `json:"cache_hit"`
	Value    any    `json:"value"`
	Elapsed  string `json:"elapsed"`
}
