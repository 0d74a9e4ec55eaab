package config

import (
	"os"

	"github.com/sidkik/hoist/pkg/errors"
)

const (
	// InitialUserConfigVersion is the first version of the hoist user
	// config. Config files that do not specify a version will default to
	// this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the hoist user
	// config of the current binary.
	SupportedUserConfigVersion = "v1alpha1"

	// DefaultServer is the deployment backend used when the user config
	// doesn't name one.
	DefaultServer = "wss://api.hoist.dev/ws"

	// DefaultLang is the language the server should reply in.
	DefaultLang = "en"

	serverEnvKey = "HOIST_SERVER"
	tokenEnvKey  = "HOIST_TOKEN"
)

// User contains configuration used to identify the user.
type User struct {
	Version string `json:"version,omitempty"`
	Server  string `json:"server,omitempty"`
	Token   string `json:"token,omitempty"`
	Lang    string `json:"lang,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// Mocked out for unit testing.
var getenv = os.Getenv

// ParseUser attempts to parse the User stored in the default path. A missing
// file is not an error: the defaults are returned so that commands can still
// run with the environment overrides.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, SupportedUserConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); !ok {
			return User{}, errors.WithContext(err, "parse")
		}
		config = User{Version: SupportedUserConfigVersion}
	}

	if server := getenv(serverEnvKey); server != "" {
		config.Server = server
	}
	if token := getenv(tokenEnvKey); token != "" {
		config.Token = token
	}
	if config.Server == "" {
		config.Server = DefaultServer
	}
	if config.Lang == "" {
		config.Lang = DefaultLang
	}
	return config, nil
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}
	return writeConfig(path, cfg)
}

// RequireToken returns a friendly error if the user hasn't logged in yet.
func (u User) RequireToken() error {
	if u.Token == "" {
		return errors.NewFriendlyError("You're not logged in.\n" +
			"Please run `hoist login --token <token>` first.")
	}
	return nil
}
