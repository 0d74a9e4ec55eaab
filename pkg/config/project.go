package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sidkik/hoist/pkg/errors"
)

const (
	// SupportedProjectConfigVersion is the version of hoist.yaml understood
	// by this binary. Files without a version are assumed to be this version.
	SupportedProjectConfigVersion = "v1alpha1"
)

// Project is the project configuration stored in hoist.yaml at the root of
// the project tree.
type Project struct {
	Version  string    `json:"version,omitempty"`
	Name     string    `json:"name,omitempty"`
	Services []Service `json:"services"`
	Exclude  []string  `json:"exclude,omitempty"`
}

// Service is a single deployable unit of a project.
type Service struct {
	Name        string            `json:"name"`
	Version     string            `json:"version,omitempty"`
	Size        string            `json:"size"`
	Inactive    bool              `json:"inactive,omitempty"`
	Commands    Commands          `json:"commands"`
	Environment map[string]string `json:"environment,omitempty"`
}

// Commands are the lifecycle commands the backend runs for a service.
type Commands struct {
	Install string `json:"install,omitempty"`
	Build   string `json:"build,omitempty"`
	Start   string `json:"start,omitempty"`
}

func (p Project) getVersion() string {
	return p.Version
}

// ActiveServices returns the services that aren't marked as inactive.
func (p Project) ActiveServices() []Service {
	var active []Service
	for _, svc := range p.Services {
		if !svc.Inactive {
			active = append(active, svc)
		}
	}
	return active
}

// ValidateProjectName checks that `name` can be used as a single path
// segment. The name keys the snapshot directory and the archive file name.
func ValidateProjectName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.NewFriendlyError(
			"Invalid project name %q. Set a name without slashes in %s.",
			name, ConfigFileName)
	}
	return nil
}

// ProjectStore reads and writes the project config of the project rooted at
// Dir.
type ProjectStore struct {
	Dir string
}

// Path returns the path to the project config.
func (s ProjectStore) Path() string {
	return filepath.Join(s.Dir, ConfigFileName)
}

// Load parses the project config. The boolean is false if the config doesn't
// exist.
func (s ProjectStore) Load() (Project, bool, error) {
	project, err := ParseProject(s.Dir)
	if err != nil {
		if _, ok := errors.RootCause(err).(errors.FileNotFound); ok {
			return Project{}, false, nil
		}
		return Project{}, false, err
	}
	return project, true, nil
}

// Write writes the project config.
func (s ProjectStore) Write(project Project) error {
	return WriteProject(s.Dir, project)
}

// ParseProject parses the hoist.yaml in `dir`.
func ParseProject(dir string) (Project, error) {
	path := filepath.Join(dir, ConfigFileName)
	project := Project{Version: SupportedProjectConfigVersion}
	if err := parseConfig(path, &project, SupportedProjectConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return Project{}, err
		}
		return Project{}, errors.WithContext(err, "parse")
	}

	if project.Name == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return Project{}, errors.WithContext(err, "get absolute path")
		}
		project.Name = filepath.Base(abs)
	}
	if err := ValidateProjectName(project.Name); err != nil {
		return Project{}, err
	}

	for i, svc := range project.Services {
		if svc.Name == "" {
			return Project{}, errors.WithContext(
				errors.MissingFieldError{Field: "name"},
				fmt.Sprintf("service %d", i))
		}
		if svc.Size == "" {
			return Project{}, errors.WithContext(
				errors.MissingFieldError{Field: "size"},
				fmt.Sprintf("service %q", svc.Name))
		}
	}
	return project, nil
}

// WriteProject writes `project` to the hoist.yaml in `dir`.
func WriteProject(dir string, project Project) error {
	project.Version = SupportedProjectConfigVersion
	return writeConfig(filepath.Join(dir, ConfigFileName), project)
}
