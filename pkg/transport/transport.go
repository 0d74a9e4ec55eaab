// Package transport implements the websocket connection to the deployment
// backend.
package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sidkik/hoist/pkg/errors"
)

// closeTimeout bounds how long Close waits to send the close frame.
const closeTimeout = time.Second

// Conn is a websocket connection that exchanges whole text frames.
type Conn struct {
	ws *websocket.Conn

	// writeLock serializes writes. gorilla/websocket supports one concurrent
	// writer and one concurrent reader.
	writeLock sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the backend at `url`.
func Dial(ctx context.Context, url string, header http.Header) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, errors.NewFriendlyError(
				"Failed to connect to %s: the server responded with %s.",
				url, resp.Status)
		}
		return nil, errors.WithContext(err, "dial")
	}
	return &Conn{ws: ws}, nil
}

// Send writes `frame` as a single text message.
func (c *Conn) Send(ctx context.Context, frame []byte) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return errors.WithContext(err, "set deadline")
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// Receive blocks until a message arrives. If the context is cancelled while
// waiting, the connection is closed to unblock the read, and it can't be
// used again.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	deadline, _ := ctx.Deadline()
	if err := c.ws.SetReadDeadline(deadline); err != nil {
		return nil, errors.WithContext(err, "set deadline")
	}

	// Only Close and WriteControl may be called concurrently with a read, so
	// the read can't be unblocked by moving its deadline from here.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.closeConn()
		case <-stop:
		}
	}()

	_, frame, err := c.ws.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.WithContext(ctxErr, "read")
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			return nil, errors.NewFriendlyError("The server closed the connection.")
		}
		return nil, errors.WithContext(err, "read")
	}
	return frame, nil
}

func (c *Conn) closeConn() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// Close sends a close frame and closes the underlying connection.
func (c *Conn) Close() error {
	c.writeLock.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
	c.writeLock.Unlock()

	return c.closeConn()
}
