package util

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/hoist/pkg/config"
	"github.com/sidkik/hoist/pkg/dispatch"
	"github.com/sidkik/hoist/pkg/errors"
	"github.com/sidkik/hoist/pkg/transport"
	"github.com/sidkik/hoist/pkg/version"
)

// Mocked out for unit testing.
var dial = func(ctx context.Context, url string, header http.Header) (dispatch.Conn, error) {
	return transport.Dial(ctx, url, header)
}

// Connect opens a connection to the server in `user`, and returns a
// dispatcher for it that falls back to the common message handling.
func Connect(ctx context.Context, user config.User, logger *log.Logger) (*dispatch.Dispatcher, error) {
	header := http.Header{}
	header.Set("User-Agent", "hoist/"+version.Version)

	logger.WithField("server", user.Server).Debug("Connecting")
	conn, err := dial(ctx, user.Server, header)
	if err != nil {
		return nil, errors.WithContext(err, "connect to server")
	}

	d := dispatch.New(conn, logger, dispatch.CommonHandler(logger))
	d.SetAuth(user.Token, user.Lang)
	return d, nil
}

// SetDialer overrides how Connect opens connections. It's meant for tests of
// the commands.
func SetDialer(fn func(ctx context.Context, url string, header http.Header) (dispatch.Conn, error)) {
	dial = fn
}
