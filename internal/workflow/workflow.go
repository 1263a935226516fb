// Package workflow gives each workflow application a typed front. Inputs are
// structs encoded into the service's flat input map and outputs are decoded
// from the terminal result, while the transport below stays schema agnostic.
package workflow

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/Backland-Labs/outreach/internal/dify"
)

// Runner executes workflow calls. *dify.Client implements it.
type Runner interface {
	Run(ctx context.Context, endpoint string, inputs dify.Inputs, user string) (dify.Outputs, error)
	RunStreaming(ctx context.Context, endpoint string, inputs dify.Inputs, opts dify.StreamOptions, user string) (dify.Outputs, error)
}

// Workflow binds a kind to its input and output schema
type Workflow[In, Out any] struct {
	kind    Kind
	runner  Runner
	prepare func(In) In
}

// New creates a typed workflow of kind k
func New[In, Out any](r Runner, k Kind) *Workflow[In, Out] {
	return &Workflow[In, Out]{kind: k, runner: r}
}

// Kind returns the workflow's kind
func (w *Workflow[In, Out]) Kind() Kind {
	return w.kind
}

// Run calls the workflow in blocking mode
func (w *Workflow[In, Out]) Run(ctx context.Context, in In, user string) (Out, error) {
	var zero Out
	inputs, err := w.encode(in)
	if err != nil {
		return zero, err
	}
	outputs, err := w.runner.Run(ctx, string(w.kind), inputs, user)
	if err != nil {
		return zero, err
	}
	return decodeOutputs[Out](w.kind, outputs)
}

// RunStreaming calls the workflow in streaming mode
func (w *Workflow[In, Out]) RunStreaming(ctx context.Context, in In, opts dify.StreamOptions, user string) (Out, error) {
	var zero Out
	inputs, err := w.encode(in)
	if err != nil {
		return zero, err
	}
	outputs, err := w.runner.RunStreaming(ctx, string(w.kind), inputs, opts, user)
	if err != nil {
		return zero, err
	}
	return decodeOutputs[Out](w.kind, outputs)
}

func (w *Workflow[In, Out]) encode(in In) (dify.Inputs, error) {
	if w.prepare != nil {
		in = w.prepare(in)
	}
	inputs, err := EncodeInputs(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s inputs: %w", w.kind, err)
	}
	return inputs, nil
}

// EncodeInputs flattens a tagged struct into an input map. Fields tagged
// omitempty are left out when zero.
func EncodeInputs(in any) (dify.Inputs, error) {
	m := map[string]any{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  &m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(in); err != nil {
		return nil, err
	}
	return dify.Inputs(m), nil
}

// DecodeOutputs maps a result object onto T. Values are weakly typed, so a
// count sent as "3" still fills an int field.
func DecodeOutputs[T any](outputs dify.Outputs) (T, error) {
	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(outputs)); err != nil {
		return out, err
	}
	return out, nil
}

func decodeOutputs[T any](k Kind, outputs dify.Outputs) (T, error) {
	out, err := DecodeOutputs[T](outputs)
	if err != nil {
		return out, fmt.Errorf("failed to decode %s outputs: %w", k, err)
	}
	return out, nil
}
