// Package fswatch notifies when files in a project tree change.
package fswatch

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/hoist/pkg/cache"
	"github.com/sidkik/hoist/pkg/errors"
)

var fs = afero.NewOsFs()

// Watcher watches a project tree.
type Watcher struct {
	watcher *fsnotify.Watcher
	changes chan struct{}
}

// Watch watches the directories under `root` that aren't excluded. The
// Changes channel receives an event whenever a file that isn't excluded
// changes. Directories created after Watch returns aren't watched.
func Watch(root string, exclude []string, logger *log.Logger) (*Watcher, error) {
	matcher, err := cache.NewMatcher(exclude)
	if err != nil {
		return nil, errors.WithContext(err, "parse excludes")
	}

	paths, err := getPathsToWatch(root, matcher)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close file watcher")
			}
			return nil, errors.WithContext(err, "watch "+path)
		}
	}

	go func() {
		for err := range watcher.Errors {
			logger.WithError(err).Debug("File watcher error")
		}
	}()

	return &Watcher{
		watcher: watcher,
		changes: combineUpdates(root, matcher, watcher.Events),
	}, nil
}

// Changes returns the channel that's notified of changes. Bursts of changes
// are combined into one event.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func combineUpdates(root string, matcher cache.Matcher, updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for event := range updates {
			rel, err := filepath.Rel(root, event.Name)
			if err == nil && matcher.Match(filepath.ToSlash(rel)) {
				continue
			}

			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

// getPathsToWatch returns `root` and its directories that aren't excluded.
// fsnotify doesn't watch directories recursively, but a watched directory
// reports changes to the files directly inside it.
func getPathsToWatch(root string, matcher cache.Matcher) (paths []string, err error) {
	fi, err := fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: root}
		}
		return nil, errors.WithContext(err, "stat")
	}
	if !fi.IsDir() {
		return nil, errors.New("%s is not a directory", root)
	}

	err = afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}
		if !fi.IsDir() {
			return nil
		}

		if path != root {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return errors.WithContext(err, "relative path")
			}
			if matcher.Match(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}

		paths = append(paths, path)
		return nil
	})
	return paths, err
}
