package cache

import (
	"sort"
)

// Snapshot maps slash-separated paths, relative to the project root, to the
// fingerprint of the file's contents.
type Snapshot map[string]Fingerprint

// Files returns the paths in the snapshot in sorted order.
func (snapshot Snapshot) Files() []string {
	var files []string
	for path := range snapshot {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// ChangeSet describes how a tree differs from its persisted snapshot.
type ChangeSet struct {
	Added    []string
	Removed  []string
	Modified []string
}

// IsChanged returns whether any file was added, removed or modified.
func (cs ChangeSet) IsChanged() bool {
	return len(cs.Added) != 0 || len(cs.Removed) != 0 || len(cs.Modified) != 0
}

// Paths returns all of the differing paths in sorted order.
func (cs ChangeSet) Paths() []string {
	var paths []string
	paths = append(paths, cs.Added...)
	paths = append(paths, cs.Removed...)
	paths = append(paths, cs.Modified...)
	sort.Strings(paths)
	return paths
}

// Diff returns the changes needed to turn `old` into `snapshot`.
func (snapshot Snapshot) Diff(old Snapshot) ChangeSet {
	var cs ChangeSet
	for path, curr := range snapshot {
		prev, ok := old[path]
		switch {
		case !ok:
			cs.Added = append(cs.Added, path)
		case prev != curr:
			cs.Modified = append(cs.Modified, path)
		}
	}

	for path := range old {
		if _, ok := snapshot[path]; !ok {
			cs.Removed = append(cs.Removed, path)
		}
	}

	sort.Strings(cs.Added)
	sort.Strings(cs.Removed)
	sort.Strings(cs.Modified)
	return cs
}
