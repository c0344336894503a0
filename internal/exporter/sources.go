package exporter

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Source is the raw text of a widget and when it last changed.
type Source struct {
	Name    string
	Text    []byte
	ModTime time.Time
}

// Widget describes a pickable widget.
type Widget struct {
	Name      string `json:"name"`
	IconColor string `json:"iconColor,omitempty"`
	IconGlyph string `json:"iconGlyph,omitempty"`
}

// SourceLookup finds widget sources by name. Source returns an error
// matching fs.ErrNotExist when the widget does not exist.
type SourceLookup interface {
	Source(name string) (Source, error)
	List() ([]Widget, error)
}

// DirSources serves widgets stored as <dir>/<name>.js.
type DirSources struct {
	fs  afero.Fs
	dir string
}

func NewDirSources(fsys afero.Fs, dir string) *DirSources {
	return &DirSources{fs: fsys, dir: dir}
}

func (d *DirSources) Dir() string {
	return d.dir
}

func (d *DirSources) Fs() afero.Fs {
	return d.fs
}

// Path returns the location of the source named name.
func (d *DirSources) Path(name string) string {
	return filepath.Join(d.dir, name+SourceExt)
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (d *DirSources) Source(name string) (Source, error) {
	if err := validName(name); err != nil {
		return Source{}, fmt.Errorf("%w: %w", fs.ErrNotExist, err)
	}
	p := d.Path(name)
	fi, err := d.fs.Stat(p)
	if err != nil {
		return Source{}, err
	}
	if fi.IsDir() {
		return Source{}, fmt.Errorf("%s: %w", p, fs.ErrNotExist)
	}
	b, err := afero.ReadFile(d.fs, p)
	if err != nil {
		return Source{}, err
	}
	return Source{Name: name, Text: b, ModTime: fi.ModTime()}, nil
}

// List returns every widget in the directory sorted by name. Sources
// carrying ScheduleMarker are left out.
func (d *DirSources) List() ([]Widget, error) {
	infos, err := afero.ReadDir(d.fs, d.dir)
	if err != nil {
		return nil, err
	}
	var widgets []Widget
	for _, fi := range infos {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), SourceExt) {
			continue
		}
		b, err := afero.ReadFile(d.fs, filepath.Join(d.dir, fi.Name()))
		if err != nil {
			return nil, err
		}
		if bytes.Contains(b, []byte(ScheduleMarker)) {
			continue
		}
		w := Widget{Name: strings.TrimSuffix(fi.Name(), SourceExt)}
		w.IconColor, w.IconGlyph = parseIcon(b)
		widgets = append(widgets, w)
	}
	sort.Slice(widgets, func(i, j int) bool {
		return widgets[i].Name < widgets[j].Name
	})
	return widgets, nil
}

var iconField = regexp.MustCompile(`icon-(color|glyph):\s*([^;]+);`)

// parseIcon reads the "// icon-color: X; icon-glyph: Y;" header from the
// leading comment lines of a source.
func parseIcon(src []byte) (color, glyph string) {
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "//") {
			break
		}
		for _, m := range iconField.FindAllStringSubmatch(line, -1) {
			v := strings.TrimSpace(m[2])
			if m[1] == "color" {
				color = v
			} else {
				glyph = v
			}
		}
	}
	return color, glyph
}
