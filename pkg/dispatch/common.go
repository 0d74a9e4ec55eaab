package dispatch

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sidkik/hoist/pkg/errors"
	"github.com/sidkik/hoist/pkg/proto"
)

const tokenErrorMessage = "The server rejected your token.\n" +
	"Please run `hoist login --token <token>` to update it."

// CommonHandler returns the handler for the messages that every command
// handles the same way. It's meant to be used as the Dispatcher's fallback.
func CommonHandler(log *logrus.Logger) Handler {
	byType := map[proto.Type]Handler{
		proto.TokenError: func(context.Context, proto.Envelope) error {
			return errors.NewFriendlyError(tokenErrorMessage)
		},
	}

	byStatus := map[proto.Status]Handler{
		proto.StatusError: func(_ context.Context, env proto.Envelope) error {
			if env.Message == "" {
				return errors.NewFriendlyError("The server failed to handle the %s request.", env.Type)
			}
			return errors.NewFriendlyError("The server reported an error:\n%s", env.Message)
		},
		proto.StatusWarn: func(_ context.Context, env proto.Envelope) error {
			if env.Message != "" {
				log.Warn(env.Message)
			}
			return nil
		},
		proto.StatusInfo: func(_ context.Context, env proto.Envelope) error {
			if env.Message != "" {
				log.Info(env.Message)
			}
			return nil
		},
	}

	return func(ctx context.Context, env proto.Envelope) error {
		if handler, ok := byType[env.Type]; ok {
			return handler(ctx, env)
		}

		if handler, ok := byStatus[env.Status]; ok {
			return handler(ctx, env)
		}
		return nil
	}
}
