// Package archive packages a project tree into a gzipped tarball.
package archive

import (
	"archive/tar"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/errors"
)

// fs is used for mock tests. It will be overridden by afero.NewMemMapFs()
// in the tests.
var fs = afero.NewOsFs()

// Tar creates gzipped tarballs.
type Tar struct{}

// Create writes a gzipped tarball of `files` to `outputPath`. The paths in
// `files` are slash-separated and relative to `root`. Entries are written in
// sorted order with their modification times zeroed, so identical trees
// produce identical archives.
func (Tar) Create(root string, files []string, outputPath string) (err error) {
	out, err := fs.OpenFile(outputPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return errors.WithContext(err, "create archive")
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = errors.WithContext(closeErr, "close archive")
		}
		if err != nil {
			fs.Remove(outputPath)
		}
	}()

	gzw, err := gzip.NewWriterLevel(out, gzip.BestSpeed)
	if err != nil {
		return errors.WithContext(err, "create gzip writer")
	}
	tw := tar.NewWriter(gzw)

	sorted := append([]string{}, files...)
	sort.Strings(sorted)
	for _, file := range sorted {
		if err := addFile(tw, root, file); err != nil {
			return errors.WithContext(err, file)
		}
	}

	if err := tw.Close(); err != nil {
		return errors.WithContext(err, "close tar writer")
	}
	if err := gzw.Close(); err != nil {
		return errors.WithContext(err, "close gzip writer")
	}
	return nil
}

func addFile(tw *tar.Writer, root, file string) error {
	f, err := fs.Open(filepath.Join(root, filepath.FromSlash(file)))
	if err != nil {
		return errors.WithContext(err, "open")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return errors.WithContext(err, "stat")
	}
	if !fi.Mode().IsRegular() {
		return errors.New("not a regular file")
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     path.Clean(file),
		Mode:     int64(fi.Mode().Perm()),
		Size:     fi.Size(),
		ModTime:  time.Unix(0, 0),
		Format:   tar.FormatPAX,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return errors.WithContext(err, "write header")
	}

	// The file may have changed size since it was scanned. The header has
	// already been written, so anything else would corrupt the archive.
	n, err := io.Copy(tw, f)
	if err != nil {
		return errors.WithContext(err, "copy")
	}
	if n != fi.Size() {
		return errors.New("file changed while archiving")
	}
	return nil
}

// TempPath creates an empty file in the system's temporary directory for
// staging the archive of `project`, and returns its path.
func TempPath(project string) (string, error) {
	if err := config.ValidateProjectName(project); err != nil {
		return "", err
	}
	f, err := afero.TempFile(fs, "", "hoist-"+project+"-")
	if err != nil {
		return "", errors.WithContext(err, "create temp file")
	}

	name := f.Name()
	if err := f.Close(); err != nil {
		return "", errors.WithContext(err, "close temp file")
	}
	return name, nil
}
