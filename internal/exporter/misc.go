package exporter

import (
	"errors"
	"time"
)

const (
	// SourceExt is the extension of widget sources in the documents dir.
	SourceExt = ".js"
	// ArtifactExt is the extension of compiled widget artifacts.
	ArtifactExt = ".widget"

	// ScheduleMarker tags a source as the schedule launcher itself, which
	// is never offered as a pickable widget.
	ScheduleMarker = "// THIS_IS_WIDGET_SCHEDULE"

	DefaultTimeout = 30 * time.Second
)

var (
	// ErrConfigurationMissing is returned when the widget the schedule
	// resolves to has no source.
	ErrConfigurationMissing = errors.New("widget source not found, reconfigure the schedule")

	ErrEntryPointMissing = errors.New("artifact does not export a function")
	ErrWidgetPending     = errors.New("widget promise never settled")
	ErrWidgetRejected    = errors.New("widget promise rejected")
	ErrInvalidName       = errors.New("invalid widget name")
)
