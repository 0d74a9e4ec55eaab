// Package dispatch routes the frames received on the connection to the
// backend, and stamps the session's identity on every frame sent.
package dispatch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/hoist/pkg/errors"
	"github.com/sidkik/hoist/pkg/proto"
)

// ErrDone is returned by a handler to stop Serve without an error.
var ErrDone = errors.New("done")

// Conn is a connection that exchanges whole frames.
type Conn interface {
	Send(ctx context.Context, frame []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Handler handles a single inbound message.
type Handler func(ctx context.Context, env proto.Envelope) error

// Dispatcher owns the connection for the lifetime of a session.
type Dispatcher struct {
	conn     Conn
	log      *logrus.Logger
	connID   string
	token    string
	lang     string
	handlers map[proto.Type]Handler
	fallback Handler

	transferLock     sync.Mutex
	transferInFlight bool
}

// New creates a Dispatcher. Messages without a registered handler are passed
// to `fallback`. The connection identity is generated once here and attached
// to every outbound message.
func New(conn Conn, log *logrus.Logger, fallback Handler) *Dispatcher {
	return &Dispatcher{
		conn:     conn,
		log:      log,
		connID:   uuid.New().String(),
		handlers: map[proto.Type]Handler{},
		fallback: fallback,
	}
}

// SetAuth sets the token and language attached to outbound messages.
func (d *Dispatcher) SetAuth(token, lang string) {
	d.token = token
	d.lang = lang
}

// ConnectionID returns the identity attached to outbound messages.
func (d *Dispatcher) ConnectionID() string {
	return d.connID
}

// Handle registers the handler for messages of type `typ`.
func (d *Dispatcher) Handle(typ proto.Type, handler Handler) {
	d.handlers[typ] = handler
}

// Serve receives and routes frames until a handler fails, a handler returns
// ErrDone, or the connection fails. Handlers run one at a time on the calling
// goroutine.
func (d *Dispatcher) Serve(ctx context.Context) error {
	for {
		frame, err := d.conn.Receive(ctx)
		if err != nil {
			return errors.WithContext(err, "receive")
		}

		if err := d.OnFrame(ctx, frame); err != nil {
			if errors.Is(err, ErrDone) {
				return nil
			}
			return err
		}
	}
}

// OnFrame parses a frame and routes it. Frames that can't be parsed are
// dropped.
func (d *Dispatcher) OnFrame(ctx context.Context, frame []byte) error {
	env, err := proto.Decode(frame)
	if err != nil {
		d.log.WithError(err).Debug("Dropping malformed frame")
		return nil
	}
	return d.Route(ctx, env)
}

// Route passes `env` to the handler registered for its type.
func (d *Dispatcher) Route(ctx context.Context, env proto.Envelope) error {
	d.log.WithField("type", env.Type).Debug("Received message")

	handler, ok := d.handlers[env.Type]
	if !ok {
		handler = d.fallback
	}
	if handler == nil {
		return nil
	}
	return handler(ctx, env)
}

// Send stamps the session's identity on `env` and writes it to the
// connection.
func (d *Dispatcher) Send(ctx context.Context, env proto.Envelope) error {
	env.ConnectionID = d.connID
	env.Token = d.token
	if env.Lang == "" {
		env.Lang = d.lang
	}
	if env.Status == "" {
		env.Status = proto.StatusInfo
	}

	frame, err := proto.Encode(env)
	if err != nil {
		return errors.WithContext(err, "encode")
	}

	if err := d.conn.Send(ctx, frame); err != nil {
		return errors.WithContext(err, "send")
	}
	return nil
}

// BeginTransfer marks the start of a transfer. Only one transfer may be in
// flight on a connection. The returned function ends the transfer.
func (d *Dispatcher) BeginTransfer() (func(), error) {
	d.transferLock.Lock()
	defer d.transferLock.Unlock()

	if d.transferInFlight {
		return nil, errors.ErrTransferInFlight
	}
	d.transferInFlight = true

	var once sync.Once
	return func() {
		once.Do(func() {
			d.transferLock.Lock()
			d.transferInFlight = false
			d.transferLock.Unlock()
		})
	}, nil
}

// Close closes the connection.
func (d *Dispatcher) Close() error {
	return d.conn.Close()
}
