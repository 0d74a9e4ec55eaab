// Package setup implements `hoist init`, which creates the project config
// from the service catalog offered by the server.
package setup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/hoist/cmd/util"
	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/dispatch"
	"github.com/sidkik/hoist/pkg/errors"
	"github.com/sidkik/hoist/pkg/proto"
)

// Mocked out for unit testing.
var (
	parseUser   = config.ParseUser
	newLogger   = util.NewLogger
	stdout      io.Writer = os.Stdout
	newPrompter = func() util.Prompter {
		return util.NewPrompter(os.Stdin, os.Stdout)
	}
)

type options struct {
	path string
	yes  bool
}

// New creates a new `init` command.
func New() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create the hoist config for a project",
		Args:  cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			opts.path = "."
			if len(args) == 1 {
				opts.path = args[0]
			}

			if err := run(context.Background(), opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false,
		"Don't prompt, and use the default service")
	return cmd
}

func run(ctx context.Context, opts options) error {
	root, err := filepath.Abs(opts.path)
	if err != nil {
		return errors.WithContext(err, "get absolute path")
	}

	logger := newLogger("init")
	prompter := newPrompter()
	store := config.ProjectStore{Dir: root}
	_, exists, err := store.Load()
	if err != nil {
		logger.WithError(err).Debug("Failed to parse the existing project config")
		exists = true
	}

	if exists && !opts.yes {
		overwrite, err := prompter.Confirm("Do you want to overwrite the config file?", false)
		if err != nil {
			return errors.WithContext(err, "prompt")
		}
		if !overwrite {
			fmt.Fprintln(stdout, "This project has already been initialized.")
			return nil
		}
	}

	user, err := parseUser()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}
	if err := user.RequireToken(); err != nil {
		return err
	}

	d, err := util.Connect(ctx, user, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	i := initializer{
		store:    store,
		name:     filepath.Base(root),
		yes:      opts.yes,
		prompter: prompter,
		log:      logger,
	}
	d.Handle(proto.DeployData, i.onDeployData)

	getDeployData, err := proto.NewEnvelope(proto.GetDeployData, nil)
	if err != nil {
		return errors.WithContext(err, "create request")
	}
	if err := d.Send(ctx, getDeployData); err != nil {
		return errors.WithContext(err, "request service catalog")
	}
	return d.Serve(ctx)
}

type initializer struct {
	store    config.ProjectStore
	name     string
	yes      bool
	prompter util.Prompter
	log      *log.Logger
}

func (i initializer) onDeployData(_ context.Context, env proto.Envelope) error {
	var catalog proto.DeployDataPayload
	if err := proto.DecodeData(env, &catalog); err != nil {
		return errors.WithContext(err, "parse service catalog")
	}
	if len(catalog.Sizes) == 0 {
		return errors.NewFriendlyError("The server doesn't offer any service sizes.")
	}

	project := config.Project{
		Name:    i.name,
		Exclude: config.DefaultExclude,
	}

	if i.yes {
		project.Services = []config.Service{defaultService(catalog)}
		if err := i.store.Write(project); err != nil {
			return errors.WithContext(err, "write config")
		}
		fmt.Fprintf(stdout, "Project successfully initialized: %s\n", i.store.Path())
		return dispatch.ErrDone
	}

	for {
		svc, err := promptService(i.prompter, catalog)
		if err != nil {
			return errors.WithContext(err, "prompt")
		}
		svc.Name = uniqueName(project.Services, svc.Name)
		project.Services = append(project.Services, svc)

		// The config is written after every service so that nothing is lost
		// if the later prompts are abandoned.
		if err := i.store.Write(project); err != nil {
			return errors.WithContext(err, "write config")
		}
		i.log.WithField("service", svc.Name).Debug("Added service")

		addAnother, err := i.prompter.Confirm("Do you want to add another service?", false)
		if err != nil {
			return errors.WithContext(err, "prompt")
		}
		if !addAnother {
			break
		}
	}

	fmt.Fprintf(stdout, "Project successfully initialized: %s\n", i.store.Path())
	return dispatch.ErrDone
}

func uniqueName(services []config.Service, name string) string {
	taken := map[string]bool{}
	for _, svc := range services {
		taken[svc.Name] = true
	}

	candidate := name
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", name, n)
	}
	return candidate
}

func validatePort(input string) error {
	port, err := strconv.Atoi(input)
	if err != nil || port <= 0 || port > 65535 {
		return errors.NewFriendlyError("Port must be a number")
	}
	return nil
}
