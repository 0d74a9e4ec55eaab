package setup

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/hoist/cmd/util"
	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/dispatch"
	"github.com/sidkik/hoist/pkg/errors"
	"github.com/sidkik/hoist/pkg/proto"
)

var catalog = proto.DeployDataPayload{
	Sizes: []proto.Size{
		{Name: "small", Memory: "512 MB", Multiplier: 1},
		{Name: "medium", Memory: "1 GB", Multiplier: 2},
	},
	Services: []proto.ServiceKind{
		{Name: "Node.js", Value: "node"},
		{Name: "Static site", Value: "static"},
	},
	BaseCost:  500,
	BaseValue: 100,
}

// catalogServer replies to getDeployData with `catalog`.
type catalogServer struct {
	t        *testing.T
	requests int
	inbox    chan []byte
}

func (s *catalogServer) Send(_ context.Context, frame []byte) error {
	env, err := proto.Decode(frame)
	require.NoError(s.t, err)

	if env.Type == proto.GetDeployData {
		s.requests++
		reply, err := proto.NewEnvelope(proto.DeployData, catalog)
		require.NoError(s.t, err)
		replyFrame, err := proto.Encode(reply)
		require.NoError(s.t, err)
		s.inbox <- replyFrame
	}
	return nil
}

func (s *catalogServer) Receive(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-s.inbox:
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *catalogServer) Close() error { return nil }

func setup(t *testing.T, answers string) (*catalogServer, *bytes.Buffer) {
	server := &catalogServer{t: t, inbox: make(chan []byte, 4)}
	out := &bytes.Buffer{}
	stdout = out
	parseUser = func() (config.User, error) {
		return config.User{Server: "ws://hoist.test/ws", Token: "token", Lang: "en"}, nil
	}
	newLogger = func(string) *logrus.Logger {
		logger, _ := logrusTest.NewNullLogger()
		return logger
	}
	newPrompter = func() util.Prompter {
		return util.NewPrompter(strings.NewReader(answers), &bytes.Buffer{})
	}
	util.SetDialer(func(context.Context, string, http.Header) (dispatch.Conn, error) {
		return server, nil
	})
	return server, out
}

func TestInitDefaults(t *testing.T) {
	setup(t, "")
	dir := filepath.Join(t.TempDir(), "shop")

	require.NoError(t, run(context.Background(), options{path: dir, yes: true}))

	project, err := config.ParseProject(dir)
	require.NoError(t, err)
	assert.Equal(t, config.Project{
		Version: config.SupportedProjectConfigVersion,
		Name:    "shop",
		Services: []config.Service{
			{
				Name:    "node",
				Version: "18",
				Size:    "small",
				Commands: config.Commands{
					Install: "npm install",
					Build:   "npm run build",
					Start:   "npm start",
				},
				Environment: map[string]string{"PORT": "3000"},
			},
		},
		Exclude: config.DefaultExclude,
	}, project)
}

func TestInitInteractive(t *testing.T) {
	answers := strings.Join([]string{
		// The first service takes the recommended kind.
		"",
		"2",
		"",
		"",
		"n",
		"node server.js",
		"eighty",
		"8080",
		"y",

		// The second one is a static site.
		"2",
		"",
		"",
	}, "\n") + "\n"
	setup(t, answers)
	dir := t.TempDir()

	require.NoError(t, run(context.Background(), options{path: dir}))

	project, err := config.ParseProject(dir)
	require.NoError(t, err)
	assert.Equal(t, []config.Service{
		{
			Name:    "node",
			Version: "18",
			Size:    "medium",
			Commands: config.Commands{
				Install: "npm install",
				Start:   "node server.js",
			},
			Environment: map[string]string{"PORT": "8080"},
		},
		{
			Name: "static",
			Size: "small",
		},
	}, project.Services)
	assert.Equal(t, config.DefaultExclude, project.Exclude)
}

func TestInitKeepsExistingConfig(t *testing.T) {
	server, out := setup(t, "n\n")
	dir := t.TempDir()
	existing := config.Project{
		Name:     "existing",
		Services: []config.Service{{Name: "api", Size: "large"}},
	}
	require.NoError(t, config.WriteProject(dir, existing))

	require.NoError(t, run(context.Background(), options{path: dir}))
	assert.Equal(t, 0, server.requests)
	assert.Contains(t, out.String(), "already been initialized")

	project, err := config.ParseProject(dir)
	require.NoError(t, err)
	assert.Equal(t, "existing", project.Name)
}

func TestInitOverwritesExistingConfig(t *testing.T) {
	server, _ := setup(t, "y\n")
	dir := filepath.Join(t.TempDir(), "shop")
	require.NoError(t, config.WriteProject(dir, config.Project{
		Name:     "existing",
		Services: []config.Service{{Name: "api", Size: "large"}},
	}))

	require.NoError(t, run(context.Background(), options{path: dir, yes: true}))
	assert.Equal(t, 1, server.requests)

	project, err := config.ParseProject(dir)
	require.NoError(t, err)
	assert.Equal(t, "shop", project.Name)
	assert.Equal(t, "node", project.Services[0].Name)
}

func TestInitWithoutToken(t *testing.T) {
	setup(t, "")
	parseUser = func() (config.User, error) { return config.User{}, nil }

	err := run(context.Background(), options{path: t.TempDir(), yes: true})
	assert.Contains(t, errors.GetPrintableMessage(err), "hoist login")
}

func TestUniqueName(t *testing.T) {
	services := []config.Service{{Name: "node"}, {Name: "node-2"}}
	assert.Equal(t, "node-3", uniqueName(services, "node"))
	assert.Equal(t, "static", uniqueName(services, "static"))
}

func TestCostString(t *testing.T) {
	tests := []struct {
		size    proto.Size
		catalog proto.DeployDataPayload
		exp     string
	}{
		{
			size:    catalog.Sizes[1],
			catalog: catalog,
			exp:     "medium (1 GB RAM): 10.00 USD/month, 0.0137 USD/hour",
		},
		{
			size:    proto.Size{Name: "tiny", Memory: "256 MB", Multiplier: 0.5},
			catalog: proto.DeployDataPayload{BaseCost: 7.3},
			exp:     "tiny (256 MB RAM): 3.65 USD/month, 0.0050 USD/hour",
		},
	}

	for _, test := range tests {
		assert.Equal(t, test.exp, costString(test.size, test.catalog))
	}
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, validatePort("3000"))
	assert.Error(t, validatePort("http"))
	assert.Error(t, validatePort("0"))
	assert.Error(t, validatePort("70000"))
}
