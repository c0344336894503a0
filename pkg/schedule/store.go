package schedule

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Store is the storage collaborator a schedule persists through.
// Keys are file names relative to the store's root directory.
type Store interface {
	Exists(key string) (bool, error)
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	LastModified(key string) (time.Time, error)
	EnsureDir(path string) error
}

// FileStore keeps records as plain files below dir on fs.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created
// lazily on the first write.
func NewFileStore(fs afero.Fs, dir string) *FileStore {
	return &FileStore{fs: fs, dir: dir}
}

// Dir returns the store's root directory.
func (f *FileStore) Dir() string {
	return f.dir
}

// Fs returns the filesystem backing the store.
func (f *FileStore) Fs() afero.Fs {
	return f.fs
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, key)
}

func (f *FileStore) Exists(key string) (bool, error) {
	return afero.Exists(f.fs, f.path(key))
}

func (f *FileStore) Read(key string) ([]byte, error) {
	return afero.ReadFile(f.fs, f.path(key))
}

func (f *FileStore) Write(key string, data []byte) error {
	if err := f.EnsureDir(f.dir); err != nil {
		return err
	}
	return afero.WriteFile(f.fs, f.path(key), data, 0644)
}

func (f *FileStore) LastModified(key string) (time.Time, error) {
	fi, err := f.fs.Stat(f.path(key))
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

// EnsureDir creates path if it is missing. An existing regular file at
// path is reported as an error.
func (f *FileStore) EnsureDir(path string) error {
	fi, err := f.fs.Stat(path)
	if err == nil {
		if !fi.IsDir() {
			return &os.PathError{Op: "mkdir", Path: path, Err: os.ErrExist}
		}
		return nil
	}
	return f.fs.MkdirAll(path, 0755)
}

var _ Store = (*FileStore)(nil)
