// Package util contains helpers shared by the hoist commands.
package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/errors"
	"github.com/sidkik/hoist/pkg/logfile"
)

// VerboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const VerboseLogKey = "HOIST_LOG_VERBOSE"

// Mocked out for unit testing.
var exit = os.Exit

// HandleFatalError handles errors that are severe enough to terminate the
// program.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")

	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	exit(1)
}

// HandlePanic catches panics, and prints the stack trace along with a request
// to file a bug.
func HandlePanic() {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "hoist crashed: %v\n\n%s\n"+
			"Please report this, and include the output above.\n", r, debug.Stack())
		exit(1)
	}
}

// NewLogger creates the logger injected into the deploy machinery for
// `command`. Warnings and errors are also appended to the hoist log file.
func NewLogger(command string) *log.Logger {
	logger := log.New()
	if os.Getenv(VerboseLogKey) == "true" {
		logger.SetLevel(log.DebugLevel)
	}

	if path, err := config.LogPath(); err == nil {
		logger.AddHook(logfile.NewHook(path, command))
	} else {
		logger.WithError(err).Debug("Failed to get log path")
	}
	return logger
}
