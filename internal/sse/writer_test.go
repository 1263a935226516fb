package sse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  string
	}{
		{"default event omits event line", Frame{Event: DefaultEvent, Data: "x"}, "data: x\n\n"},
		{"empty event omits event line", Frame{Data: "x"}, "data: x\n\n"},
		{"named event", Frame{Event: "progress", Data: "{}"}, "event: progress\ndata: {}\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteFrame(&buf, tt.frame))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteFrame_RejectsMultilineData(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, Frame{Data: "a\nb"})
	assert.ErrorIs(t, err, ErrMultilineData)
	assert.Zero(t, buf.Len())
}

func TestWriteJSON_RoundTripsThroughDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, "result", map[string]string{"result": "第一行\n第二行"}))
	require.NoError(t, WriteComment(&buf, "keepalive"))

	frames := NewDecoder().Feed(buf.Bytes())
	require.Len(t, frames, 1)
	assert.Equal(t, "result", frames[0].Event)
	assert.JSONEq(t, `{"result":"第一行\n第二行"}`, frames[0].Data)
}
