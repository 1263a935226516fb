package sse

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = "event: message\ndata: {\"event\":\"node_started\",\"data\":{\"title\":\"审核\"}}\n\n" +
	": keepalive\n\n" +
	"data: {\"event\":\"node_finished\",\"data\":{\"title\":\"审核\",\"status\":\"succeeded\"}}\n\n" +
	"event: ping\ndata:\n\n" +
	"event: custom\ndata: first\ndata: second\n\n" +
	"data: {\"event\":\"workflow_finished\",\"data\":{\"outputs\":{\"result\":\"文案通过\"}}}\n\n" +
	"data: trailing-without-delimiter"

func decodeAll(chunks ...[]byte) []Frame {
	dec := NewDecoder()
	var frames []Frame
	for _, c := range chunks {
		frames = append(frames, dec.Feed(c)...)
	}
	return frames
}

func TestDecoder_Feed(t *testing.T) {
	frames := decodeAll([]byte(sampleStream))

	require.Len(t, frames, 4)
	assert.Equal(t, "message", frames[0].Event)
	assert.Contains(t, frames[0].Data, "node_started")
	assert.Equal(t, DefaultEvent, frames[1].Event, "frames without event: use the default name")
	assert.Equal(t, Frame{Event: "custom", Data: "second"}, frames[2], "last data line wins")
	assert.Contains(t, frames[3].Data, "文案通过")
}

func TestDecoder_DiscardsKeepAlives(t *testing.T) {
	frames := decodeAll([]byte(": ping\n\nevent: heartbeat\n\ndata:   \n\n"))
	assert.Empty(t, frames)
}

func TestDecoder_BuffersIncompleteFrame(t *testing.T) {
	dec := NewDecoder()

	assert.Empty(t, dec.Feed([]byte("data: hel")))
	assert.Equal(t, len("data: hel"), dec.Buffered())

	frames := dec.Feed([]byte("lo\n\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, "hello", frames[0].Data)
	assert.Zero(t, dec.Buffered())
}

// Splitting the stream anywhere, including inside a multi-byte character,
// must decode to the same frames as a single chunk.
func TestDecoder_ReassemblyAtEveryBoundary(t *testing.T) {
	raw := []byte(sampleStream)
	want := decodeAll(raw)

	for i := 0; i <= len(raw); i++ {
		got := decodeAll(raw[:i], raw[i:])
		require.Equal(t, want, got, "split at byte %d", i)
	}

	for size := 1; size <= 7; size++ {
		var chunks [][]byte
		for start := 0; start < len(raw); start += size {
			end := min(start+size, len(raw))
			chunks = append(chunks, raw[start:end])
		}
		require.Equal(t, want, decodeAll(chunks...), "chunk size %d", size)
	}
}

type trackingBody struct {
	r      io.Reader
	err    error
	closed bool
}

func (b *trackingBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if errors.Is(err, io.EOF) && b.err != nil {
		return n, b.err
	}
	return n, err
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

// oneByteReader forces the sequence to reassemble frames across many reads
type oneByteReader struct{ data []byte }

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestFrames(t *testing.T) {
	t.Run("yields frames and closes body at end of stream", func(t *testing.T) {
		body := &trackingBody{r: &oneByteReader{data: []byte(sampleStream)}}

		var frames []Frame
		for frame, err := range Frames(body) {
			require.NoError(t, err)
			frames = append(frames, frame)
		}

		assert.Equal(t, decodeAll([]byte(sampleStream)), frames)
		assert.True(t, body.closed)
	})

	t.Run("propagates read errors and closes body", func(t *testing.T) {
		readErr := errors.New("connection reset")
		body := &trackingBody{r: bytes.NewReader([]byte("data: one\n\ndata: tw")), err: readErr}

		var frames []Frame
		var gotErr error
		for frame, err := range Frames(body) {
			if err != nil {
				gotErr = err
				continue
			}
			frames = append(frames, frame)
		}

		require.Len(t, frames, 1)
		assert.ErrorIs(t, gotErr, readErr)
		assert.True(t, body.closed)
	})

	t.Run("closes body when consumer stops early", func(t *testing.T) {
		body := &trackingBody{r: bytes.NewReader([]byte("data: a\n\ndata: b\n\ndata: c\n\n"))}

		count := 0
		for range Frames(body) {
			count++
			break
		}

		assert.Equal(t, 1, count)
		assert.True(t, body.closed)
	})
}
