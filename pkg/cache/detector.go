package cache

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"

	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/errors"
	"github.com/sidkik/hoist/pkg/fileutil"
)

// snapshotFormatVersion is bumped whenever the persisted format or the
// default digest changes, so that old snapshots are treated as unusable
// rather than as "everything changed".
const snapshotFormatVersion = 1

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type snapshotFile struct {
	Version int      `json:"version"`
	Files   Snapshot `json:"files"`
}

// Detector maintains the persisted snapshot of one project.
type Detector struct {
	// Path is where the snapshot is persisted.
	Path string

	// Hash is used to compute file digests. DefaultHash is used if it's nil.
	Hash HashFunc
}

// NewDetector returns a Detector that persists its snapshot in the tool home.
func NewDetector(project string) (Detector, error) {
	path, err := config.SnapshotPath(project)
	if err != nil {
		return Detector{}, errors.WithContext(err, "get snapshot path")
	}
	return Detector{Path: path}, nil
}

// CreateSnapshot scans the tree under `root` and persists the result.
func (d Detector) CreateSnapshot(root string, exclude []string) (Snapshot, error) {
	snapshot, err := d.Scan(root, exclude)
	if err != nil {
		return nil, errors.WithContext(err, "scan")
	}

	if err := d.Save(snapshot); err != nil {
		return nil, errors.WithContext(err, "save")
	}
	return snapshot, nil
}

// Compare diffs the tree under `root` against the persisted snapshot. The
// fresh scan is returned as well so that the caller can persist exactly what
// it compared.
func (d Detector) Compare(root string, exclude []string) (ChangeSet, Snapshot, error) {
	old, err := d.Load()
	if err != nil {
		return ChangeSet{}, nil, errors.WithContext(err, "load snapshot")
	}

	curr, err := d.Scan(root, exclude)
	if err != nil {
		return ChangeSet{}, nil, errors.WithContext(err, "scan")
	}
	return curr.Diff(old), curr, nil
}

// Scan fingerprints every regular file under `root` that isn't excluded. The
// tool's own files are always excluded. Excluded directories aren't
// descended into.
func (d Detector) Scan(root string, exclude []string) (Snapshot, error) {
	matcher, err := NewMatcher(config.WithImplicitExclude(exclude))
	if err != nil {
		return nil, errors.WithContext(err, "parse excludes")
	}

	snapshot := Snapshot{}
	err = afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk")
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.WithContext(err, "get relative path")
		}
		if rel == "." {
			return nil
		}

		rel = filepath.ToSlash(rel)
		if matcher.Match(rel) {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !fi.Mode().IsRegular() {
			return nil
		}

		fingerprint, err := FingerprintFile(path, d.Hash)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("fingerprint %s", rel))
		}
		snapshot[rel] = fingerprint
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Load reads the persisted snapshot. It returns errors.ErrSnapshotNotFound if
// the project was never deployed from this machine.
func (d Detector) Load() (Snapshot, error) {
	snapshotBytes, err := afero.ReadFile(fs, d.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrSnapshotNotFound
		}
		return nil, errors.WithContext(err, "read")
	}

	var persisted snapshotFile
	if err := json.Unmarshal(snapshotBytes, &persisted); err != nil {
		return nil, errors.NewFriendlyError("The deploy cache at %q is corrupt "+
			"and will be rebuilt on the next successful deploy:\n%s", d.Path, err)
	}

	if persisted.Version != snapshotFormatVersion || persisted.Files == nil {
		return nil, errors.NewFriendlyError("The deploy cache at %q was written "+
			"by an incompatible version of hoist, and will be rebuilt on the "+
			"next successful deploy.", d.Path)
	}
	return persisted.Files, nil
}

// Save atomically replaces the persisted snapshot.
func (d Detector) Save(snapshot Snapshot) error {
	if snapshot == nil {
		snapshot = Snapshot{}
	}

	snapshotBytes, err := json.Marshal(snapshotFile{
		Version: snapshotFormatVersion,
		Files:   snapshot,
	})
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := fileutil.WriteAtomic(fs, d.Path, snapshotBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}
