// Package sse decodes and encodes Server-Sent Events frames.
// It knows nothing about the JSON carried in a frame's data field, so the same
// decoder serves the workflow stream and the chat stream.
package sse

import (
	"bytes"
	"strings"
)

// DefaultEvent is the event name of a frame that carries no event: line
const DefaultEvent = "message"

var frameDelimiter = []byte("\n\n")

// Frame is one decoded SSE unit
type Frame struct {
	Event string
	Data  string
}

// Decoder incrementally turns chunks of an SSE byte stream into frames.
// The buffer holds raw bytes, so a chunk may end anywhere, including inside a
// multi-byte UTF-8 sequence. A Decoder is not safe for concurrent use.
type Decoder struct {
	buf []byte
}

// NewDecoder creates an empty decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk and returns every frame it completed, in wire order.
// Text after the last blank line stays buffered until a later chunk completes it.
func (d *Decoder) Feed(chunk []byte) []Frame {
	d.buf = append(d.buf, chunk...)

	var frames []Frame
	for {
		idx := bytes.Index(d.buf, frameDelimiter)
		if idx < 0 {
			break
		}
		if frame, ok := parseFrame(d.buf[:idx]); ok {
			frames = append(frames, frame)
		}
		d.buf = d.buf[idx+len(frameDelimiter):]
	}

	// Release the backing array once everything has been consumed
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return frames
}

// Buffered reports how many bytes are waiting for a frame delimiter
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// parseFrame scans the lines of one frame candidate. The last data: line wins.
// Frames whose data is empty are keep-alives and are reported as not ok.
func parseFrame(block []byte) (Frame, bool) {
	frame := Frame{Event: DefaultEvent}
	for _, line := range strings.Split(string(block), "\n") {
		switch {
		case strings.HasPrefix(line, "event:"):
			frame.Event = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			frame.Data = strings.TrimSpace(line[len("data:"):])
		}
	}
	if frame.Data == "" {
		return Frame{}, false
	}
	return frame, true
}
