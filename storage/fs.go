package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/karrick/godirwalk"

	"github.com/peak/s5transfer/storage/url"
)

// Filesystem implements the local side of transfers.
type Filesystem struct{}

// NewFilesystem returns a local filesystem handle.
func NewFilesystem() *Filesystem {
	return &Filesystem{}
}

// Stat returns the Object structure describing the file.
func (f *Filesystem) Stat(path string) (*Object, error) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrGivenObjectNotFound
		}
		return nil, err
	}

	fileurl, err := url.New(path)
	if err != nil {
		return nil, err
	}

	mod := st.ModTime()
	return &Object{
		URL:     fileurl,
		Size:    st.Size(),
		ModTime: &mod,
	}, nil
}

// IsDir reports whether the path is an existing directory.
func (f *Filesystem) IsDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// WalkFunc is called for every regular file found by Walk.
type WalkFunc func(path string, obj *Object) error

// Walk calls fn for every regular file under root in lexical order. Special
// files are skipped, and so are subdirectories unless recursive is set.
// Walking stops at the first error returned by fn or when ctx is canceled.
func (f *Filesystem) Walk(ctx context.Context, root string, recursive bool, fn WalkFunc) error {
	root = filepath.Clean(root)

	st, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return ErrNotDirectory
	}

	return godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(pathname string, dirent *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			// we're interested in files
			if dirent.IsDir() {
				if !recursive && pathname != root {
					return filepath.SkipDir
				}
				return nil
			}

			special, err := f.IsSpecialFile(pathname)
			if err != nil {
				return err
			}
			if special {
				return nil
			}

			obj, err := f.Stat(pathname)
			if err != nil {
				return err
			}
			return fn(pathname, obj)
		},
		FollowSymbolicLinks: true,
	})
}

// IsSpecialFile reports whether the file is a device, pipe or socket.
func (f *Filesystem) IsSpecialFile(path string) (bool, error) {
	st, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	mode := st.Mode()
	return mode&(os.ModeDevice|os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0, nil
}

// MkdirAll calls os.MkdirAll.
func (f *Filesystem) MkdirAll(path string) error {
	return os.MkdirAll(path, os.ModePerm)
}

// Create creates a new os.File, including its parent directories.
func (f *Filesystem) Create(path string) (*os.File, error) {
	if err := f.MkdirAll(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// Open opens the given source.
func (f *Filesystem) Open(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_RDONLY, 0644)
	if err != nil {
		return nil, err
	}

	return file, nil
}

// Delete deletes given file.
func (f *Filesystem) Delete(path string) error {
	return os.Remove(path)
}

// SetModTime sets both the access and modification times of the file.
func (f *Filesystem) SetModTime(path string, t time.Time) error {
	return os.Chtimes(path, t, t)
}
