package upload

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/hoist/pkg/errors"
)

// scriptedReader returns reads of the given sizes, followed by `err`.
type scriptedReader struct {
	reads []int
	err   error
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if len(r.reads) == 0 {
		return 0, r.err
	}

	n := r.reads[0]
	r.reads = r.reads[1:]
	for i := 0; i < n; i++ {
		p[i] = byte(i)
	}
	return n, nil
}

type emitted struct {
	chunks   []Chunk
	progress []Progress
}

func (e *emitted) emit(c Chunk, p Progress) error {
	e.chunks = append(e.chunks, c)
	e.progress = append(e.progress, p)
	return nil
}

func (e *emitted) percents() (percents []int) {
	for _, p := range e.progress {
		percents = append(percents, p.Percent)
	}
	return percents
}

func assertWellFormed(t *testing.T, chunks []Chunk) {
	var lastCount int
	for i, c := range chunks {
		assert.Equal(t, i, c.Sequence)
		if c.IsLast {
			lastCount++
			assert.Empty(t, c.Payload)
		}
	}
	assert.Equal(t, 1, lastCount)
	assert.True(t, chunks[len(chunks)-1].IsLast)
}

func TestStreamProgress(t *testing.T) {
	var out emitted
	src := &scriptedReader{reads: []int{1000, 1000, 500}, err: io.EOF}
	require.NoError(t, New(src, 2500).Stream(context.Background(), out.emit))

	require.Len(t, out.chunks, 4)
	assert.Equal(t, []int{40, 80, 100, 100}, out.percents())
	assert.Len(t, out.chunks[0].Payload, 1000)
	assert.Len(t, out.chunks[1].Payload, 1000)
	assert.Len(t, out.chunks[2].Payload, 500)
	assertWellFormed(t, out.chunks)
	assert.Equal(t, Progress{BytesRead: 2500, BytesTotal: 2500, Percent: 100}, out.progress[3])
}

func TestStreamContents(t *testing.T) {
	contents := bytes.Repeat([]byte("hoist"), readSize)
	var out emitted
	require.NoError(t, New(bytes.NewReader(contents), int64(len(contents))).
		Stream(context.Background(), out.emit))

	var received []byte
	for _, c := range out.chunks {
		received = append(received, c.Payload...)
	}
	assert.Equal(t, contents, received)
	assertWellFormed(t, out.chunks)
	assert.Len(t, out.chunks, 6)
}

func TestStreamEmptySource(t *testing.T) {
	var out emitted
	require.NoError(t, New(bytes.NewReader(nil), 0).Stream(context.Background(), out.emit))

	require.Len(t, out.chunks, 1)
	assert.Equal(t, Chunk{Sequence: 0, IsLast: true, Payload: []byte{}}, out.chunks[0])
	assert.Equal(t, 100, out.progress[0].Percent)
}

func TestStreamDataWithEOF(t *testing.T) {
	var out emitted
	src := &eofReader{data: []byte("abc")}
	require.NoError(t, New(src, 3).Stream(context.Background(), out.emit))

	require.Len(t, out.chunks, 2)
	assert.Equal(t, []byte("abc"), out.chunks[0].Payload)
	assertWellFormed(t, out.chunks)
}

// eofReader returns its data and io.EOF from the same call.
type eofReader struct {
	data []byte
}

func (r *eofReader) Read(p []byte) (int, error) {
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, io.EOF
}

func TestStreamPercentClamped(t *testing.T) {
	tests := []struct {
		name  string
		reads []int
		total int64
		exp   []int
	}{
		{
			name:  "SourceLargerThanTotal",
			reads: []int{60, 60},
			total: 100,
			exp:   []int{60, 100, 100},
		},
		{
			name:  "Floor",
			reads: []int{1, 1, 998},
			total: 1000,
			exp:   []int{0, 0, 100, 100},
		},
		{
			name:  "ZeroTotal",
			reads: []int{10},
			total: 0,
			exp:   []int{100, 100},
		},
		{
			name:  "ZeroByteReads",
			reads: []int{0, 50, 0, 50},
			total: 100,
			exp:   []int{50, 100, 100},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var out emitted
			src := &scriptedReader{reads: test.reads, err: io.EOF}
			require.NoError(t, New(src, test.total).Stream(context.Background(), out.emit))
			assert.Equal(t, test.exp, out.percents())
			assertWellFormed(t, out.chunks)
		})
	}
}

func TestStreamSourceError(t *testing.T) {
	readErr := errors.New("disk on fire")
	var out emitted
	src := &scriptedReader{reads: []int{10, 10, 10}, err: readErr}

	err := New(src, 100).Stream(context.Background(), out.emit)
	assert.True(t, errors.Is(err, readErr))

	require.Len(t, out.chunks, 3)
	assert.Equal(t, 2, out.chunks[2].Sequence)
	for _, c := range out.chunks {
		assert.False(t, c.IsLast)
	}
}

func TestStreamEmitError(t *testing.T) {
	sendErr := errors.New("connection reset")
	var calls int
	emit := func(c Chunk, _ Progress) error {
		calls++
		assert.False(t, c.IsLast)
		return sendErr
	}

	src := &scriptedReader{reads: []int{10, 10}, err: io.EOF}
	err := New(src, 20).Stream(context.Background(), emit)
	assert.True(t, errors.Is(err, sendErr))
	assert.Equal(t, 1, calls)
}

func TestStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var out emitted
	emit := func(c Chunk, p Progress) error {
		cancel()
		return out.emit(c, p)
	}

	src := &scriptedReader{reads: []int{10, 10}, err: io.EOF}
	err := New(src, 20).Stream(ctx, emit)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, out.chunks, 1)
}

func TestStreamNotRestartable(t *testing.T) {
	var out emitted
	u := New(bytes.NewReader([]byte("abc")), 3)
	require.NoError(t, u.Stream(context.Background(), out.emit))

	err := u.Stream(context.Background(), out.emit)
	assert.Equal(t, errors.ErrStreamConsumed, err)
	assert.Len(t, out.chunks, 2)
}
