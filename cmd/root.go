package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/hoist/cmd/deploy"
	"github.com/sidkik/hoist/cmd/login"
	"github.com/sidkik/hoist/cmd/setup"
	"github.com/sidkik/hoist/cmd/util"
	"github.com/sidkik/hoist/cmd/version"
)

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(util.VerboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	if err := newRootCommand().Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "hoist",
		Short:        "Deploy projects to the cloud",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		deploy.New(),
		login.New(),
		setup.New(),
		version.New(),
	)
	return rootCmd
}
