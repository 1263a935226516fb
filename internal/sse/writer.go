package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMultilineData is returned when a frame's data would span several lines
var ErrMultilineData = errors.New("sse: frame data must be a single line")

// WriteFrame writes f in wire format. The event: line is omitted for the
// default event name.
func WriteFrame(w io.Writer, f Frame) error {
	if strings.ContainsAny(f.Data, "\r\n") {
		return ErrMultilineData
	}

	var b strings.Builder
	if f.Event != "" && f.Event != DefaultEvent {
		b.WriteString("event: ")
		b.WriteString(f.Event)
		b.WriteString("\n")
	}
	b.WriteString("data: ")
	b.WriteString(f.Data)
	b.WriteString("\n\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON marshals v onto a single data line under the given event name
func WriteJSON(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}
	return WriteFrame(w, Frame{Event: event, Data: string(data)})
}

// WriteComment writes an SSE comment line, used as a keep-alive
func WriteComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", text)
	return err
}
