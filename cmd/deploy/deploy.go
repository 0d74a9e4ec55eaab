package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/hoist/cmd/util"
	"github.com/sidkik/hoist/pkg/archive"
	"github.com/sidkik/hoist/pkg/cache"
	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/dispatch"
	"github.com/sidkik/hoist/pkg/errors"
	"github.com/sidkik/hoist/pkg/fswatch"
	"github.com/sidkik/hoist/pkg/proto"
	"github.com/sidkik/hoist/pkg/session"
	"github.com/sidkik/hoist/pkg/version"
)

const (
	defaultTimeout = 2 * time.Minute

	// settleTime is how long the tree has to stay unchanged before a watch
	// triggers another deploy.
	settleTime = 500 * time.Millisecond
)

type changeWatcher interface {
	Changes() <-chan struct{}
	Close() error
}

// Mocked out for unit testing.
var (
	parseUser   = config.ParseUser
	newLogger   = util.NewLogger
	clock       = clockwork.NewRealClock()
	stdout      io.Writer = os.Stdout
	newDetector = func(project string) (session.Detector, error) {
		return cache.NewDetector(project)
	}
	watch = func(root string, exclude []string, logger *log.Logger) (changeWatcher, error) {
		return fswatch.Watch(root, exclude, logger)
	}
)

type options struct {
	path    string
	server  string
	timeout time.Duration
	watch   bool
}

// New creates a new `deploy` command.
func New() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "deploy [path]",
		Short: "Upload the project to the cloud",
		Long: "Upload the project at `path` (defaulting to the current directory).\n" +
			"Nothing is uploaded if the project didn't change since the last deploy.",
		Args: cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			opts.path = "."
			if len(args) == 1 {
				opts.path = args[0]
			}

			deploy := run
			if opts.watch {
				deploy = watchAndDeploy
			}
			if err := deploy(context.Background(), opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&opts.server, "server", "",
		"Address of the deployment server. Overrides the user config.")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", defaultTimeout,
		"How long to wait for a reply from the server.")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false,
		"Deploy again whenever the project changes.")
	return cmd
}

// watchAndDeploy deploys the project, and then deploys it again after every
// change until `ctx` is cancelled.
func watchAndDeploy(ctx context.Context, opts options) error {
	logger := newLogger("deploy")
	for {
		root, project, err := loadProject(opts.path)
		if err != nil {
			return err
		}

		// Start watching before deploying so that changes made during the
		// upload trigger another deploy.
		w, err := watch(root, config.WithImplicitExclude(project.Exclude), logger)
		if err != nil {
			return errors.WithContext(err, "watch project")
		}

		if err := run(ctx, opts); err != nil {
			w.Close()
			return err
		}

		fmt.Fprintln(stdout, "Watching for changes..")
		changed := waitForChange(ctx, w.Changes())
		w.Close()
		if !changed {
			return nil
		}
	}
}

// waitForChange blocks until a change is followed by `settleTime` without
// further changes. It returns false if `ctx` is cancelled first.
func waitForChange(ctx context.Context, changes <-chan struct{}) bool {
	select {
	case <-changes:
	case <-ctx.Done():
		return false
	}

	for {
		select {
		case <-changes:
		case <-clock.After(settleTime):
			return true
		case <-ctx.Done():
			return false
		}
	}
}

func loadProject(path string) (string, config.Project, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return "", config.Project{}, errors.WithContext(err, "get absolute path")
	}

	store := config.ProjectStore{Dir: root}
	project, ok, err := store.Load()
	if err != nil {
		return "", config.Project{}, errors.WithContext(err, "parse project config")
	}
	if !ok {
		return "", config.Project{}, errors.NewFriendlyError(
			"No project config found at %s.\n"+
				"Please run `hoist init` first.", store.Path())
	}
	return root, project, nil
}

func run(ctx context.Context, opts options) error {
	root, project, err := loadProject(opts.path)
	if err != nil {
		return err
	}

	user, err := parseUser()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}
	if opts.server != "" {
		user.Server = opts.server
	}
	if err := user.RequireToken(); err != nil {
		return err
	}

	detector, err := newDetector(project.Name)
	if err != nil {
		return errors.WithContext(err, "create change detector")
	}

	logger := newLogger("deploy")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := util.Connect(ctx, user, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	wd := startWatchdog(clock, opts.timeout, cancel)
	defer wd.stop()

	deployer := deployer{
		root:     root,
		project:  project,
		detector: detector,
		sender:   d,
		log:      logger,
		watchdog: wd,
		fallback: dispatch.CommonHandler(logger),
	}
	d.Handle(proto.ProjectStatus, deployer.onProjectStatus)
	d.Handle(proto.DeployComplete, deployer.onDeployComplete)

	fmt.Fprintf(stdout, "Deploying %q..\n", project.Name)
	checkProject, err := proto.NewEnvelope(proto.CheckProject,
		proto.CheckProjectPayload{Project: project.Name})
	if err != nil {
		return errors.WithContext(err, "create request")
	}
	if err := d.Send(ctx, checkProject); err != nil {
		return errors.WithContext(err, "check project")
	}

	err = d.Serve(ctx)
	if wd.expired() {
		return errors.NewFriendlyError(
			"Timed out after %s waiting for the server.", opts.timeout)
	}
	return err
}

type deployer struct {
	root     string
	project  config.Project
	detector session.Detector
	sender   session.Sender
	log      *log.Logger
	watchdog *watchdog

	// fallback handles the replies that carry an error instead of a status.
	fallback dispatch.Handler
}

func (d deployer) onProjectStatus(ctx context.Context, env proto.Envelope) error {
	if env.Status == proto.StatusError {
		return d.fallback(ctx, env)
	}

	var status proto.ProjectStatusPayload
	if err := proto.DecodeData(env, &status); err != nil {
		return errors.WithContext(err, "parse project status")
	}

	if !version.Compatible(status.ServerVersion, version.Version) {
		return errors.NewFriendlyError("The server is running version %s, "+
			"which isn't compatible with this version of hoist (%s).\n"+
			"Please upgrade hoist to a matching version.",
			status.ServerVersion, version.Version)
	}

	// The session can take arbitrarily long to upload a large project, so
	// only the waits for the server are bounded.
	d.watchdog.disarm()
	defer d.watchdog.arm()

	sess := session.New(
		session.Config{Root: d.root, Project: d.project},
		session.Deps{
			Detector: d.detector,
			Archiver: archive.Tar{},
			Sender:   d.sender,
			Reporter: util.NewProgressBar(stdout, "Uploading the project"),
			Log:      d.log,
		})
	outcome, err := sess.Run(ctx, status)
	if err != nil {
		return errors.WithContext(err, "deploy")
	}

	switch {
	case outcome.Skipped:
		fmt.Fprintln(stdout, "Nothing to upload.")
	case outcome.ProjectChanged:
		fmt.Fprintf(stdout, "Uploaded %d bytes.\n", outcome.BytesTransferred)
	}
	fmt.Fprintln(stdout, "Waiting for the server to finish the deploy..")
	return nil
}

func (d deployer) onDeployComplete(_ context.Context, env proto.Envelope) error {
	var complete proto.DeployCompletePayload
	if len(env.Data) != 0 {
		if err := proto.DecodeData(env, &complete); err != nil {
			return errors.WithContext(err, "parse deploy result")
		}
	}

	if complete.URL != "" {
		fmt.Fprintf(stdout, "Deployed to %s\n", complete.URL)
	} else {
		fmt.Fprintln(stdout, "Deploy finished.")
	}
	return dispatch.ErrDone
}
