// Package session implements a single deploy of a project: it decides
// whether the project needs to be uploaded, and if so, streams it to the
// backend.
package session

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/hoist/pkg/archive"
	"github.com/sidkik/hoist/pkg/cache"
	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/errors"
	"github.com/sidkik/hoist/pkg/fileutil"
	"github.com/sidkik/hoist/pkg/proto"
	"github.com/sidkik/hoist/pkg/upload"
)

// State is the state of a Session.
type State int

const (
	Idle State = iota
	DetectingChanges
	Skipped
	Uploading
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DetectingChanges:
		return "detecting changes"
	case Skipped:
		return "skipped"
	case Uploading:
		return "uploading"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Detector decides whether the project changed since its last upload.
type Detector interface {
	Compare(root string, exclude []string) (cache.ChangeSet, cache.Snapshot, error)
	Scan(root string, exclude []string) (cache.Snapshot, error)
	Save(snapshot cache.Snapshot) error
}

// Archiver packages the listed files into a single file at `outputPath`.
type Archiver interface {
	Create(root string, files []string, outputPath string) error
}

// Sender sends messages to the backend.
type Sender interface {
	Send(ctx context.Context, env proto.Envelope) error
	BeginTransfer() (func(), error)
}

// Reporter shows the progress of an upload to the user.
type Reporter interface {
	Progress(percent int)
	Done()
}

// Config is the project being deployed.
type Config struct {
	// Root is the directory containing the project tree.
	Root string

	Project config.Project
}

// Deps are the collaborators used by a Session.
type Deps struct {
	Detector Detector
	Archiver Archiver
	Sender   Sender
	Reporter Reporter
	Log      *logrus.Logger
}

// Outcome describes how a session ended.
type Outcome struct {
	State State

	// Skipped is true if nothing was uploaded because the project didn't
	// change.
	Skipped bool

	// ProjectChanged is true if the project was uploaded.
	ProjectChanged bool

	BytesTotal       int64
	BytesTransferred int64
}

// Session is a single deploy. Sessions can't be reused.
type Session struct {
	cfg  Config
	deps Deps

	state            State
	cacheUsable      bool
	needUpload       bool
	skipped          bool
	projectChanged   bool
	bytesTotal       int64
	bytesTransferred int64
}

// Mocked out for unit testing.
var (
	fs          = afero.NewOsFs()
	tempPath    = archive.TempPath
	openArchive = func(path string) (io.ReadCloser, int64, error) {
		return fileutil.OpenSized(fs, path)
	}
)

// New creates a Session.
func New(cfg Config, deps Deps) *Session {
	return &Session{cfg: cfg, deps: deps}
}

// State returns the current state of the session.
func (s *Session) State() State {
	return s.state
}

// Run deploys the project. `status` is the server's reply to the
// checkProject request for the project.
func (s *Session) Run(ctx context.Context, status proto.ProjectStatusPayload) (Outcome, error) {
	if s.state != Idle {
		return s.outcome(), errors.New("session already ran")
	}

	s.state = DetectingChanges
	exclude := config.WithImplicitExclude(s.cfg.Project.Exclude)
	changes, scan := s.detectChanges(exclude)

	s.needUpload = !status.Exists || !s.cacheUsable || changes.IsChanged()
	log := s.deps.Log.WithField("project", s.cfg.Project.Name)
	log.WithFields(logrus.Fields{
		"exists":      status.Exists,
		"cacheUsable": s.cacheUsable,
		"changed":     len(changes.Paths()),
	}).Debug("Detected changes")

	active := s.cfg.Project.ActiveServices()
	if len(active) == 0 {
		log.Info("No active services. Removing the deployment.")
		return s.sendCompletion(ctx, false)
	}

	if !s.needUpload && s.cacheUsable {
		log.Info("No changes since the last deploy.")
		s.state = Skipped
		return s.sendCompletion(ctx, true)
	}

	payload := s.payload(status.Sizes)
	if len(payload.ActiveServices()) == 0 {
		s.state = Failed
		return s.outcome(), errors.NewFriendlyError(
			"The server doesn't offer the size of any service in %q. "+
				"Offered sizes: %v.", s.cfg.Project.Name, status.Sizes)
	}
	if err := s.upload(ctx, exclude, scan, payload); err != nil {
		s.state = Failed
		return s.outcome(), err
	}

	s.state = Completed
	return s.outcome(), nil
}

// detectChanges compares the tree to the persisted snapshot. A failure means
// the cache can't be used to skip the upload, but the deploy continues.
func (s *Session) detectChanges(exclude []string) (cache.ChangeSet, cache.Snapshot) {
	changes, scan, err := s.deps.Detector.Compare(s.cfg.Root, exclude)
	switch {
	case err == nil:
		s.cacheUsable = true
		return changes, scan
	case errors.Is(err, errors.ErrSnapshotNotFound):
		s.deps.Log.Info("First deploy from this machine. Uploading the whole project.")
	default:
		s.deps.Log.WithError(err).Warn("Failed to check for changes. " +
			"Uploading the whole project.")
	}
	s.cacheUsable = false
	return cache.ChangeSet{}, nil
}

// sendCompletion ends the transfer without uploading any data.
func (s *Session) sendCompletion(ctx context.Context, skipped bool) (Outcome, error) {
	end, err := s.deps.Sender.BeginTransfer()
	if err != nil {
		s.state = Failed
		return s.outcome(), err
	}
	defer end()

	err = s.send(ctx, proto.UploadPayload{
		Sequence:       0,
		Project:        s.cfg.Project.Name,
		IsLast:         true,
		Chunk:          []byte{},
		ProjectChanged: false,
	})
	if err != nil {
		s.state = Failed
		return s.outcome(), errors.WithContext(err, "send completion")
	}

	s.skipped = skipped
	s.state = Completed
	return s.outcome(), nil
}

func (s *Session) upload(ctx context.Context, exclude []string,
	scan cache.Snapshot, payload config.Project) error {

	end, err := s.deps.Sender.BeginTransfer()
	if err != nil {
		return err
	}
	defer end()

	s.state = Uploading
	if scan == nil {
		scan, err = s.deps.Detector.Scan(s.cfg.Root, exclude)
		if err != nil {
			return errors.WithContext(err, "scan project")
		}
	}

	archivePath, err := tempPath(s.cfg.Project.Name)
	if err != nil {
		return errors.WithContext(err, "create archive")
	}
	defer fs.Remove(archivePath)

	if err := s.deps.Archiver.Create(s.cfg.Root, scan.Files(), archivePath); err != nil {
		return errors.WithContext(err, "create archive")
	}

	source, size, err := openArchive(archivePath)
	if err != nil {
		return errors.WithContext(err, "open archive")
	}
	defer source.Close()

	s.bytesTotal = size
	err = upload.New(source, size).Stream(ctx, func(chunk upload.Chunk, progress upload.Progress) error {
		data := proto.UploadPayload{
			Sequence:       chunk.Sequence,
			Project:        s.cfg.Project.Name,
			IsLast:         chunk.IsLast,
			Chunk:          chunk.Payload,
			ProjectChanged: true,
		}
		if chunk.Sequence == 0 && !chunk.IsLast {
			data.Config = &payload
		}

		if err := s.send(ctx, data); err != nil {
			return err
		}

		if !chunk.IsLast {
			s.bytesTransferred = progress.BytesRead
			s.deps.Reporter.Progress(progress.Percent)
		}
		return nil
	})
	if err != nil {
		return errors.WithContext(err, "upload")
	}
	s.deps.Reporter.Done()
	s.projectChanged = true

	// The snapshot reflects what was just uploaded, so it's only written
	// once the server has the whole transfer.
	if err := s.deps.Detector.Save(scan); err != nil {
		s.deps.Log.WithError(err).Warn("Failed to update the deploy cache. " +
			"The next deploy will upload the whole project.")
	}
	return nil
}

// payload returns the configuration sent with the upload. Active services
// whose size isn't offered by the server are left out.
func (s *Session) payload(offeredSizes []string) config.Project {
	payload := s.cfg.Project
	if len(offeredSizes) == 0 {
		return payload
	}

	offered := map[string]struct{}{}
	for _, size := range offeredSizes {
		offered[size] = struct{}{}
	}

	payload.Services = nil
	for _, svc := range s.cfg.Project.Services {
		if _, ok := offered[svc.Size]; !ok && !svc.Inactive {
			s.deps.Log.WithFields(logrus.Fields{
				"service": svc.Name,
				"size":    svc.Size,
			}).Warn("The server doesn't offer this size. Skipping the service's update.")
			continue
		}
		payload.Services = append(payload.Services, svc)
	}
	return payload
}

func (s *Session) send(ctx context.Context, data proto.UploadPayload) error {
	env, err := proto.NewEnvelope(proto.Upload, data)
	if err != nil {
		return err
	}
	return s.deps.Sender.Send(ctx, env)
}

func (s *Session) outcome() Outcome {
	return Outcome{
		State:            s.state,
		Skipped:          s.skipped,
		ProjectChanged:   s.projectChanged,
		BytesTotal:       s.bytesTotal,
		BytesTransferred: s.bytesTransferred,
	}
}
