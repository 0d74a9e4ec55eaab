// Package fileutil contains filesystem helpers shared by the config and cache
// packages.
package fileutil

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/sidkik/hoist/pkg/errors"
)

// WriteAtomic replaces the file at `path` with `data`. The contents are first
// written to a temporary sibling file which is then renamed over `path`, so
// readers observe either the old contents or the new ones, never a mix.
// Parent directories are created as needed.
func WriteAtomic(fs afero.Fs, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return errors.WithContext(err, "make parent")
	}

	tmp, err := afero.TempFile(fs, dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return errors.WithContext(err, "create temp file")
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	if writeErr == nil {
		writeErr = tmp.Sync()
	}
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = fs.Remove(tmpPath)
		if writeErr != nil {
			return errors.WithContext(writeErr, "write temp file")
		}
		return errors.WithContext(closeErr, "close temp file")
	}

	if err := fs.Chmod(tmpPath, perm); err != nil {
		_ = fs.Remove(tmpPath)
		return errors.WithContext(err, "set file mode")
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		_ = fs.Remove(tmpPath)
		return errors.WithContext(err, "rename")
	}
	return nil
}

// OpenSized opens the file at `path` for reading and returns it along with
// its size.
func OpenSized(fs afero.Fs, path string) (io.ReadCloser, int64, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, 0, errors.WithContext(err, "open")
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.WithContext(err, "stat")
	}
	return f, fi.Size(), nil
}
