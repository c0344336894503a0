package schedule

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// RecordExt is the file extension of persisted schedule records.
	RecordExt = ".schedule"
	// DefaultFolder is the folder (below the documents directory) holding
	// schedule records and compiled widget artifacts.
	DefaultFolder = "Widget Schedule"
)

var (
	ErrNotConfigured = errors.New("schedule is not set up")
	ErrCorruptRecord = errors.New("schedule record is corrupt")
	ErrInvalidRange  = errors.New("invalid slot range")
	ErrEmptyWidget   = errors.New("widget name is empty")
	ErrNoStore       = errors.New("schedule has no store")
	ErrInvalidName   = errors.New("invalid schedule name")
)

// ValidateName rejects names that would place the record outside the
// store's directory.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// RecordKey returns the storage key of the schedule called name.
func RecordKey(name string) string {
	return name + RecordExt
}
