package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/mzeryck/widgetsched/pkg/slot"
)

type recordingConfirmer struct {
	answer bool
	calls  int
}

func (r *recordingConfirmer) Confirm(context.Context, string, string) (bool, error) {
	r.calls++
	return r.answer, nil
}

// readOnlyStore refuses every write.
type readOnlyStore struct {
	*FileStore
}

var errReadOnly = errors.New("read-only store")

func (readOnlyStore) Write(string, []byte) error { return errReadOnly }

func newTestSchedule(t *testing.T) (*Schedule, *FileStore) {
	t.Helper()
	store := NewFileStore(afero.NewMemMapFs(), "/docs/Widget Schedule")
	s := New(store, "home", "Clock")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return s, store
}

func mustAssign(t *testing.T, s *Schedule, name string, start, end slot.Index, force bool) {
	t.Helper()
	ok, err := s.Assign(context.Background(), nil, name, start, end, force)
	if err != nil {
		t.Fatalf("Assign(%q, %d, %d): %v", name, start, end, err)
	}
	if !ok {
		t.Fatalf("Assign(%q, %d, %d) not applied", name, start, end)
	}
}

func TestAssignSingleEntry(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 4, 7, true)
	got := s.Entries()
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d: %+v", len(got), got)
	}
	if got[0] != (Entry{Widget: "A", Start: 4, End: 7}) {
		t.Fatalf("unexpected entry: %+v", got[0])
	}
}

func TestAssignLaterWinsOnOverlap(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 0, 5, true)
	mustAssign(t, s, "B", 3, 8, true)
	got := s.Entries()
	want := []Entry{{"A", 0, 2}, {"B", 3, 8}}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v; want %+v", i, got[i], want[i])
		}
	}
}

func TestAssignDeclinedLeavesStateUnchanged(t *testing.T) {
	s, store := newTestSchedule(t)
	mustAssign(t, s, "A", 2, 6, true)
	before := s.Times
	recBefore, err := store.Read(RecordKey("home"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	c := &recordingConfirmer{answer: false}
	ok, err := s.Assign(context.Background(), c, "B", 5, 9, false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if ok {
		t.Fatalf("expected declined assignment to report false")
	}
	if c.calls != 1 {
		t.Fatalf("expected one confirmation, got %d", c.calls)
	}
	if s.Times != before {
		t.Fatalf("slots changed after decline")
	}
	recAfter, _ := store.Read(RecordKey("home"))
	if string(recAfter) != string(recBefore) {
		t.Fatalf("record rewritten after decline")
	}
}

func TestAssignConfirmedOverwrites(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 2, 6, true)
	c := &recordingConfirmer{answer: true}
	ok, err := s.Assign(context.Background(), c, "B", 5, 9, false)
	if err != nil || !ok {
		t.Fatalf("Assign = %v, %v", ok, err)
	}
	if s.Times[5] != "B" || s.Times[4] != "A" {
		t.Fatalf("unexpected slots: %v", s.Times[:10])
	}
}

func TestAssignNoPromptWithoutConflict(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 2, 6, true)
	c := &recordingConfirmer{answer: false}
	// same widget and empty slots never conflict
	ok, err := s.Assign(context.Background(), c, "A", 0, 10, false)
	if err != nil || !ok {
		t.Fatalf("Assign = %v, %v", ok, err)
	}
	if c.calls != 0 {
		t.Fatalf("expected no confirmation, got %d", c.calls)
	}
}

func TestAssignIdempotent(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 10, 20, true)
	once := s.Times
	mustAssign(t, s, "A", 10, 20, true)
	if s.Times != once {
		t.Fatalf("second assignment changed slots")
	}
}

func TestAssignInvalidRange(t *testing.T) {
	s, _ := newTestSchedule(t)
	tests := []struct{ start, end slot.Index }{
		{5, 4},
		{-1, 3},
		{0, slot.PerDay},
		{slot.None, slot.None},
	}
	for _, tt := range tests {
		_, err := s.Assign(context.Background(), nil, "A", tt.start, tt.end, true)
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("Assign(%d, %d) err = %v; want ErrInvalidRange", tt.start, tt.end, err)
		}
	}
}

func TestResolve(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "Weather", 16, 17, true)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)
	if got := s.Resolve(day.Add(8*time.Hour + 45*time.Minute)); got != "Weather" {
		t.Errorf("Resolve(08:45) = %q", got)
	}
	if got := s.Resolve(day.Add(9 * time.Hour)); got != "Clock" {
		t.Errorf("Resolve(09:00) = %q; want default", got)
	}
}

func TestEntriesSkipEmptyAndSplitOnChange(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 0, 1, true)
	mustAssign(t, s, "B", 2, 3, true)
	mustAssign(t, s, "A", 10, 10, true)
	mustAssign(t, s, "C", 47, 47, true)
	want := []Entry{{"A", 0, 1}, {"B", 2, 3}, {"A", 10, 10}, {"C", 47, 47}}
	got := s.Entries()
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v; want %+v", i, got[i], want[i])
		}
	}
}

func TestAllStopsEarly(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 0, 1, true)
	mustAssign(t, s, "B", 5, 6, true)
	var n int
	for range s.All() {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("expected iteration to stop after one entry, got %d", n)
	}
}

func TestEntryAt(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 4, 9, true)
	e, ok := s.EntryAt(6)
	if !ok || e != (Entry{"A", 4, 9}) {
		t.Fatalf("EntryAt(6) = %+v, %v", e, ok)
	}
	if _, ok := s.EntryAt(10); ok {
		t.Fatalf("expected no entry at empty slot")
	}
}

func TestMoveStart(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 10, 15, true)
	e := s.Entries()[0]

	if ok, err := s.MoveStart(context.Background(), nil, e, 8); err != nil || !ok {
		t.Fatalf("extend: %v, %v", ok, err)
	}
	if got := s.Entries()[0]; got != (Entry{"A", 8, 15}) {
		t.Fatalf("after extend: %+v", got)
	}

	e = s.Entries()[0]
	if ok, err := s.MoveStart(context.Background(), nil, e, 12); err != nil || !ok {
		t.Fatalf("shrink: %v, %v", ok, err)
	}
	if got := s.Entries()[0]; got != (Entry{"A", 12, 15}) {
		t.Fatalf("after shrink: %+v", got)
	}

	if _, err := s.MoveStart(context.Background(), nil, s.Entries()[0], 16); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestMoveStartIntoOtherWidgetAsks(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 2, 5, true)
	mustAssign(t, s, "B", 6, 9, true)
	b := s.Entries()[1]
	c := &recordingConfirmer{answer: false}
	ok, err := s.MoveStart(context.Background(), c, b, 4)
	if err != nil || ok {
		t.Fatalf("expected declined move, got %v, %v", ok, err)
	}
	if c.calls != 1 {
		t.Fatalf("expected confirmation")
	}
}

func TestMoveEnd(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 10, 15, true)
	e := s.Entries()[0]
	if ok, err := s.MoveEnd(context.Background(), nil, e, 20); err != nil || !ok {
		t.Fatalf("extend: %v, %v", ok, err)
	}
	if got := s.Entries()[0]; got != (Entry{"A", 10, 20}) {
		t.Fatalf("after extend: %+v", got)
	}
	e = s.Entries()[0]
	if ok, err := s.MoveEnd(context.Background(), nil, e, 11); err != nil || !ok {
		t.Fatalf("shrink: %v, %v", ok, err)
	}
	if got := s.Entries()[0]; got != (Entry{"A", 10, 11}) {
		t.Fatalf("after shrink: %+v", got)
	}
	if ok, _ := s.MoveEnd(context.Background(), nil, s.Entries()[0], 11); ok {
		t.Fatalf("expected no-op move to report false")
	}
}

func TestDeleteAndRename(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 3, 4, true)
	mustAssign(t, s, "B", 7, 8, true)
	if _, err := s.Rename(context.Background(), s.Entries()[1], "C"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := s.Delete(context.Background(), s.Entries()[0]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got := s.Entries()
	if len(got) != 1 || got[0] != (Entry{"C", 7, 8}) {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestAddRejectsEmptyName(t *testing.T) {
	s, _ := newTestSchedule(t)
	if _, err := s.Add(context.Background(), nil, "", 0, 1); !errors.Is(err, ErrEmptyWidget) {
		t.Fatalf("expected ErrEmptyWidget, got %v", err)
	}
}

func TestSetDefault(t *testing.T) {
	s, store := newTestSchedule(t)
	if err := s.SetDefault("Calendar"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	loaded, err := Load(store, "home")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.DefaultWidget != "Calendar" {
		t.Fatalf("default not persisted: %q", loaded.DefaultWidget)
	}
	if err := s.SetDefault(""); !errors.Is(err, ErrEmptyWidget) {
		t.Fatalf("expected ErrEmptyWidget, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, store := newTestSchedule(t)
	mustAssign(t, s, "A", 0, 3, true)
	mustAssign(t, s, "B", 40, 47, true)
	loaded, err := Load(store, "home")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.DefaultWidget != s.DefaultWidget || loaded.Times != s.Times {
		t.Fatalf("round trip mismatch")
	}
	if loaded.Name != "home" {
		t.Fatalf("unexpected name %q", loaded.Name)
	}
}

func TestRecordShape(t *testing.T) {
	s, store := newTestSchedule(t)
	mustAssign(t, s, "A", 1, 1, true)
	b, err := store.Read(RecordKey("home"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if raw["defaultWidget"] != "Clock" {
		t.Fatalf("unexpected defaultWidget: %v", raw["defaultWidget"])
	}
	times, ok := raw["times"].([]any)
	if !ok || len(times) != slot.PerDay {
		t.Fatalf("expected %d times, got %v", slot.PerDay, raw["times"])
	}
	if times[1] != "A" {
		t.Fatalf("unexpected slot 1: %v", times[1])
	}
}

func TestLoadNotConfigured(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "/docs")
	if _, err := Load(store, "missing"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "/docs")
	if err := store.Write(RecordKey("bad"), []byte("{not json")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := Load(store, "bad"); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
	if err := store.Write(RecordKey("short"), []byte(`{"defaultWidget":"A","times":["",""]}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := Load(store, "short"); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestLoadMissingTimes(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "/docs")
	if err := store.Write(RecordKey("fresh"), []byte(`{"defaultWidget":"A"}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	s, err := Load(store, "fresh")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Entries()) != 0 {
		t.Fatalf("expected no entries")
	}
	if s.Resolve(time.Now()) != "A" {
		t.Fatalf("expected default widget")
	}
}

func TestSaveWithoutStore(t *testing.T) {
	s := New(nil, "x", "A")
	if err := s.Save(); !errors.Is(err, ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}

func TestRows(t *testing.T) {
	s, _ := newTestSchedule(t)
	mustAssign(t, s, "A", 2, 3, true)
	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Kind != RowDefault || rows[0].Widget != "Clock" || rows[0].Description() != "Default" {
		t.Fatalf("unexpected default row: %+v", rows[0])
	}
	if rows[1].Kind != RowTimed || rows[1].Entry != (Entry{"A", 2, 3}) {
		t.Fatalf("unexpected timed row: %+v", rows[1])
	}
}

func TestFileStoreEnsureDirOnFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/docs/file", []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store := NewFileStore(fs, "/docs")
	if err := store.EnsureDir("/docs/file"); err == nil {
		t.Fatalf("expected error when a file blocks the directory")
	}
	if err := store.EnsureDir("/docs/sub"); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if ok, _ := afero.IsDir(fs, "/docs/sub"); !ok {
		t.Fatalf("expected directory to exist")
	}
}

func TestNamesCannotLeaveStoreDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "/docs/Widget Schedule")
	for _, name := range []string{"", ".", "..", "../outside", `sub\x`, "a/b"} {
		if _, err := Load(store, name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Load(%q) = %v, want ErrInvalidName", name, err)
		}
		if err := New(store, name, "Clock").Save(); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Save(%q) = %v, want ErrInvalidName", name, err)
		}
	}
	if ok, _ := afero.Exists(fs, "/docs/outside"+RecordExt); ok {
		t.Error("record written outside the store directory")
	}
}

func TestLastModified(t *testing.T) {
	s, store := newTestSchedule(t)
	when := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	if err := store.Fs().Chtimes(store.Dir()+"/"+RecordKey("home"), when, when); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	got, err := store.LastModified(RecordKey("home"))
	if err != nil || !got.Equal(when) {
		t.Fatalf("FileStore.LastModified = %v, %v", got, err)
	}
	if got, err := s.LastModified(); err != nil || !got.Equal(when) {
		t.Fatalf("Schedule.LastModified = %v, %v", got, err)
	}
	if _, err := store.LastModified(RecordKey("missing")); err == nil {
		t.Error("expected an error for a missing record")
	}
	if _, err := New(nil, "home", "Clock").LastModified(); !errors.Is(err, ErrNoStore) {
		t.Errorf("LastModified without store = %v", err)
	}
}

func TestFailedWriteRestoresSchedule(t *testing.T) {
	s, store := newTestSchedule(t)
	mustAssign(t, s, "A", 2, 3, true)
	before := s.Times
	s.store = readOnlyStore{store}

	ok, err := s.Assign(context.Background(), nil, "B", 0, 5, true)
	if ok || !errors.Is(err, errReadOnly) {
		t.Fatalf("Assign = %v, %v; want false, errReadOnly", ok, err)
	}
	if s.Times != before {
		t.Errorf("slots changed after failed write: %v", s.Times)
	}
	if err := s.SetDefault("Other"); !errors.Is(err, errReadOnly) {
		t.Fatalf("SetDefault = %v", err)
	}
	if s.DefaultWidget != "Clock" {
		t.Errorf("default = %q after failed write", s.DefaultWidget)
	}

	disk, err := Load(store, "home")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if disk.Times != s.Times || disk.DefaultWidget != s.DefaultWidget {
		t.Error("memory and record disagree after failed write")
	}
}
