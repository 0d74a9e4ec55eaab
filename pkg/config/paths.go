package config

import (
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/sidkik/hoist/pkg/errors"
)

const (
	// ToolHomePath is the directory holding hoist's per-user state.
	ToolHomePath = "~/.hoist"

	// ConfigFileName is the name of the project config in the project root.
	ConfigFileName = "hoist.yaml"

	// SnapshotFileName is the name of the per-project fingerprint snapshot.
	SnapshotFileName = "snapshot.json"

	// LogFileName is the name of the log file in the tool home.
	LogFileName = "hoist.log"

	// userConfigFileName is the name of the user config in the tool home.
	userConfigFileName = "config.yaml"
)

// ImplicitExclude contains the files that hoist creates itself. They're never
// fingerprinted or uploaded, regardless of the project's exclude list.
var ImplicitExclude = []string{ConfigFileName, SnapshotFileName, LogFileName}

// DefaultExclude is the exclude list written by `hoist init`.
var DefaultExclude = []string{"node_modules", ".git", "dist", ".DS_Store"}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ToolHome returns the expanded path to the tool home directory.
func ToolHome() (string, error) {
	home, err := homedirExpand(ToolHomePath)
	if err != nil {
		return "", errors.WithContext(err, "expand tool home")
	}
	return home, nil
}

// SnapshotPath returns the path of the persisted snapshot for `project`.
func SnapshotPath(project string) (string, error) {
	if err := ValidateProjectName(project); err != nil {
		return "", err
	}
	home, err := ToolHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, project, SnapshotFileName), nil
}

// LogPath returns the path of the log file.
func LogPath() (string, error) {
	home, err := ToolHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LogFileName), nil
}

// GetUserConfigPath returns the path to the user's global hoist
// configuration. This path is expanded, so it can be directly passed to file
// operations.
func GetUserConfigPath() (string, error) {
	home, err := ToolHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, userConfigFileName), nil
}

// WithImplicitExclude returns `exclude` with the tool's own file names
// appended.
func WithImplicitExclude(exclude []string) []string {
	combined := append([]string{}, exclude...)
	for _, name := range ImplicitExclude {
		if !contains(combined, name) {
			combined = append(combined, name)
		}
	}
	return combined
}

func contains(slc []string, s string) bool {
	for _, x := range slc {
		if x == s {
			return true
		}
	}
	return false
}
