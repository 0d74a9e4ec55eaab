// Package upload turns a sized byte stream into an ordered sequence of
// chunks that ends with a terminal marker.
package upload

import (
	"context"
	"io"

	"github.com/sidkik/hoist/pkg/errors"
)

// readSize is the size of the buffer passed to the source's Read. Sources
// that return fewer bytes per read produce smaller chunks.
const readSize = 64 * 1024

// Chunk is one unit of a transfer. Exactly one chunk per transfer has IsLast
// set, and it has an empty Payload.
type Chunk struct {
	Sequence int
	IsLast   bool
	Payload  []byte
}

// Progress describes how much of the source has been read.
type Progress struct {
	BytesRead  int64
	BytesTotal int64

	// Percent is in [0, 100] and never decreases within a transfer.
	Percent int
}

// EmitFunc hands a chunk to the transport. The payload is owned by the
// callee. Returning an error aborts the transfer.
type EmitFunc func(Chunk, Progress) error

// Uploader streams a single source. It can't be restarted.
type Uploader struct {
	source    io.Reader
	totalSize int64
	bytesRead int64
	percent   int
	sequence  int
	consumed  bool
}

// New creates an Uploader for `source`, which is expected to contain
// `totalSize` bytes.
func New(source io.Reader, totalSize int64) *Uploader {
	return &Uploader{source: source, totalSize: totalSize}
}

// Stream reads the source until it's exhausted, and calls `emit` with a data
// chunk for every read that returned bytes. Once the source is exhausted, a
// terminal chunk is emitted.
//
// If the source, `emit`, or the context fails, Stream returns immediately
// and the terminal chunk is never emitted. Receivers must not consider a
// transfer complete without it.
func (u *Uploader) Stream(ctx context.Context, emit EmitFunc) error {
	if u.consumed {
		return errors.ErrStreamConsumed
	}
	u.consumed = true

	buf := make([]byte, readSize)
	for {
		if err := ctx.Err(); err != nil {
			return errors.WithContext(err, "upload")
		}

		n, readErr := u.source.Read(buf)
		if n > 0 {
			payload := make([]byte, n)
			copy(payload, buf[:n])
			u.bytesRead += int64(n)

			chunk := Chunk{Sequence: u.sequence, Payload: payload}
			u.sequence++
			if err := emit(chunk, u.progress()); err != nil {
				return errors.WithContext(err, "send chunk")
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return errors.WithContext(readErr, "read source")
		}
	}

	terminal := Chunk{Sequence: u.sequence, IsLast: true, Payload: []byte{}}
	u.sequence++
	if err := emit(terminal, u.progress()); err != nil {
		return errors.WithContext(err, "send terminal chunk")
	}
	return nil
}

func (u *Uploader) progress() Progress {
	percent := 100
	if u.totalSize > 0 {
		percent = int(u.bytesRead * 100 / u.totalSize)
	}

	if percent > 100 {
		percent = 100
	}
	if percent < u.percent {
		percent = u.percent
	}
	u.percent = percent

	return Progress{
		BytesRead:  u.bytesRead,
		BytesTotal: u.totalSize,
		Percent:    percent,
	}
}
