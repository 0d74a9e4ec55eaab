package login

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sidkik/hoist/cmd/util"
	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/errors"
)

// Mocked out for unit testing.
var (
	parseUser           = config.ParseUser
	writeUser           = config.WriteUser
	stdout    io.Writer = os.Stdout
)

// New creates a new `login` command.
func New() *cobra.Command {
	var token, server string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save the token used to authenticate with the deployment server",
		Run: func(_ *cobra.Command, _ []string) {
			if err := Main(token, server); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Token issued for your account.")
	cmd.Flags().StringVar(&server, "server", "",
		"Address of the deployment server. The default server is used if it's not set.")
	return cmd
}

// Main saves `token`, and `server` if it's set, in the user config.
func Main(token, server string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.NewFriendlyError("A token is required.\n" +
			"Please provide it with `hoist login --token <token>`")
	}

	user, err := parseUser()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	user.Token = token
	if server != "" {
		user.Server = server
	}

	// Don't pin the default, so that it can change in later releases.
	if user.Server == config.DefaultServer {
		user.Server = ""
	}

	if err := writeUser(user); err != nil {
		return errors.WithContext(err, "write user config")
	}

	fmt.Fprintln(stdout, "Successfully logged in.")
	fmt.Fprintln(stdout, "`hoist deploy` will now use this token.")
	return nil
}
