package exporter

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Artifact is a compiled widget together with its compilation time.
type Artifact struct {
	Name       string
	Content    []byte
	CompiledAt time.Time
}

// Fresh reports whether the artifact may be used for a source last
// modified at sourceTS.
func (a Artifact) Fresh(sourceTS time.Time) bool {
	return !a.CompiledAt.Before(sourceTS)
}

// Cache stores compiled artifacts keyed by widget name. Get reports
// ok=false when nothing is cached for name.
type Cache interface {
	Get(ctx context.Context, name string) (a Artifact, ok bool, err error)
	Put(ctx context.Context, a Artifact) error
}

// FileCache keeps artifacts next to the schedule records as
// <dir>/<name>.widget. The file's modification time is the compilation
// timestamp.
type FileCache struct {
	fs  afero.Fs
	dir string
}

func NewFileCache(fsys afero.Fs, dir string) *FileCache {
	return &FileCache{fs: fsys, dir: dir}
}

func (c *FileCache) Path(name string) string {
	return filepath.Join(c.dir, name+ArtifactExt)
}

func (c *FileCache) Get(_ context.Context, name string) (Artifact, bool, error) {
	p := c.Path(name)
	fi, err := c.fs.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, err
	}
	b, err := afero.ReadFile(c.fs, p)
	if err != nil {
		return Artifact{}, false, err
	}
	return Artifact{Name: name, Content: b, CompiledAt: fi.ModTime()}, true, nil
}

func (c *FileCache) Put(_ context.Context, a Artifact) error {
	if err := c.fs.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	p := c.Path(a.Name)
	if err := afero.WriteFile(c.fs, p, a.Content, 0644); err != nil {
		return err
	}
	return c.fs.Chtimes(p, a.CompiledAt, a.CompiledAt)
}

var _ Cache = (*FileCache)(nil)
