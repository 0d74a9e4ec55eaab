// Package logfile records warnings and errors in the hoist log file, so that
// failed deploys can be debugged after the terminal output is gone.
package logfile

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/hoist/pkg/version"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// formatter formats entries as one JSON object per line.
var formatter = &logrus.JSONFormatter{
	FieldMap: logrus.FieldMap{
		logrus.FieldKeyTime:  "timestamp",
		logrus.FieldKeyLevel: "status",
		logrus.FieldKeyMsg:   "message",
	},
}

type hook struct {
	path    string
	command string
	lock    sync.Mutex
}

// NewHook creates a hook that appends warnings and errors to the file at
// `path`. `command` is recorded with every entry.
func NewHook(path, command string) logrus.Hook {
	return &hook{path: path, command: command}
}

func (h *hook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
	}
}

func (h *hook) Fire(entry *logrus.Entry) error {
	dataCopy := logrus.Fields{
		"command": h.command,
		"version": version.Version,
	}
	for k, v := range entry.Data {
		dataCopy[k] = v
	}

	// Copy the entry so that the extra fields don't show up in the terminal
	// output.
	entryCopy := *entry
	entryCopy.Data = dataCopy

	jsonBytes, err := formatter.Format(&entryCopy)
	if err != nil {
		return nil
	}

	h.lock.Lock()
	defer h.lock.Unlock()

	if err := fs.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return nil
	}

	f, err := fs.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	defer f.Close()

	// Never return an error because logrus prints hook errors directly to
	// stderr, in the middle of the progress output.
	f.Write(jsonBytes)
	return nil
}
