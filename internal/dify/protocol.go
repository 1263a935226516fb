package dify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/Backland-Labs/outreach/internal/sse"
)

var errMissingData = errors.New("envelope has no data object")

type frameKind int

const (
	frameIgnored frameKind = iota
	frameProgress
	frameResult
	frameNoise
)

type decodedFrame struct {
	kind     frameKind
	progress ProgressEvent
	outputs  Outputs
	err      error
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeNodeData(raw json.RawMessage) (nodeData, error) {
	var d nodeData
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return d, err
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           &d,
	})
	if err != nil {
		return d, err
	}
	if err := decoder.Decode(fields); err != nil {
		return d, err
	}
	return d, nil
}

// decodeFrame interprets one run-stream frame. Unknown events are ignored;
// anything that cannot be decoded is noise.
func decodeFrame(f sse.Frame) decodedFrame {
	var env envelope
	if err := json.Unmarshal([]byte(f.Data), &env); err != nil {
		return decodedFrame{kind: frameNoise, err: fmt.Errorf("malformed envelope: %w", err)}
	}

	switch env.Event {
	case EventNodeStarted, EventNodeFinished:
		if isNull(env.Data) {
			return decodedFrame{kind: frameNoise, err: errMissingData}
		}
		d, err := decodeNodeData(env.Data)
		if err != nil {
			return decodedFrame{kind: frameNoise, err: fmt.Errorf("malformed %s data: %w", env.Event, err)}
		}

		ev := ProgressEvent{
			Event:     env.Event,
			NodeTitle: d.Title,
			NodeType:  d.NodeType,
			NodeIndex: d.Index,
			Status:    StatusRunning,
		}
		if env.Event == EventNodeFinished {
			ev.Status = StatusFailed
			if d.Status == string(StatusSucceeded) {
				ev.Status = StatusSucceeded
			}
			ev.ElapsedTime = d.ElapsedTime
		}
		return decodedFrame{kind: frameProgress, progress: ev}

	case EventWorkflowFinished:
		if isNull(env.Data) {
			return decodedFrame{kind: frameNoise, err: errMissingData}
		}
		var d finishedData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return decodedFrame{kind: frameNoise, err: fmt.Errorf("malformed %s data: %w", env.Event, err)}
		}
		if isNull(d.Outputs) {
			return decodedFrame{kind: frameIgnored}
		}
		var out Outputs
		if err := json.Unmarshal(d.Outputs, &out); err != nil {
			return decodedFrame{kind: frameNoise, err: fmt.Errorf("outputs is not an object: %w", err)}
		}
		return decodedFrame{kind: frameResult, outputs: out}

	default:
		return decodedFrame{kind: frameIgnored}
	}
}
