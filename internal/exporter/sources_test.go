package exporter

import (
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func TestDirSourcesList(t *testing.T) {
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"Weather.js": "// Variables used by Scriptable.\n// icon-color: deep-blue; icon-glyph: cloud;\nreturn 1",
		"Clock.js":   "return 2",
		"home.js":    "// icon-color: cyan; icon-glyph: clock;\n" + ScheduleMarker + "\n",
		"notes.txt":  "ignored",
		"late.js":    "return 3\n// icon-color: red; icon-glyph: x;",
	}
	for name, body := range files {
		if err := afero.WriteFile(fsys, filepath.Join(docsDir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := fsys.MkdirAll(filepath.Join(docsDir, "folder.js"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := NewDirSources(fsys, docsDir).List()
	if err != nil {
		t.Fatal(err)
	}
	want := []Widget{
		{Name: "Clock"},
		{Name: "Weather", IconColor: "deep-blue", IconGlyph: "cloud"},
		{Name: "late"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List =\n %+v\nwant\n %+v", got, want)
	}
}

func TestDirSourcesSource(t *testing.T) {
	fsys := afero.NewMemMapFs()
	d := NewDirSources(fsys, docsDir)
	if err := afero.WriteFile(fsys, d.Path("Clock"), []byte("return 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Chtimes(d.Path("Clock"), sourceTime, sourceTime); err != nil {
		t.Fatal(err)
	}

	src, err := d.Source("Clock")
	if err != nil {
		t.Fatal(err)
	}
	if string(src.Text) != "return 1" || !src.ModTime.Equal(sourceTime) {
		t.Errorf("source = %+v", src)
	}
	if _, err := d.Source("Nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing source error = %v", err)
	}
	if _, err := d.Source("a/b"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("path-like name error = %v", err)
	}
}
