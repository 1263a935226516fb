// Package fanout runs one call per target concurrently and collects every
// outcome. Runs are all-settled: a failing target never cancels or alters
// the others, and it shows up only as a key missing from the outputs.
package fanout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Separator joins per-target messages in an aggregated error
const Separator = "；"

// Failure is the error of one target
type Failure struct {
	Target string
	Err    error
}

// Error aggregates the failures of a run in target order
type Error struct {
	Failures []Failure
}

func (e *Error) Error() string {
	return e.Join(func(err error) string { return err.Error() })
}

// Join renders each failure with format and joins them with Separator
func (e *Error) Join(format func(error) string) string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, format(f.Err))
	}
	return strings.Join(msgs, Separator)
}

// Unwrap exposes the per-target errors to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Result is the settled state of a run
type Result[T any] struct {
	// Targets are the distinct targets in the order they were given
	Targets []string

	// Outputs holds exactly the targets that succeeded
	Outputs map[string]T

	// Errors holds exactly the targets that failed
	Errors map[string]error
}

// Err returns nil when every target succeeded, otherwise an *Error
func (r Result[T]) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	fe := &Error{}
	for _, target := range r.Targets {
		if err, ok := r.Errors[target]; ok {
			fe.Failures = append(fe.Failures, Failure{Target: target, Err: err})
		}
	}
	return fe
}

// Missing lists the targets absent from Outputs, in target order
func (r Result[T]) Missing() []string {
	var missing []string
	for _, target := range r.Targets {
		if _, ok := r.Outputs[target]; !ok {
			missing = append(missing, target)
		}
	}
	return missing
}

// Succeeded lists the targets present in Outputs, in target order
func (r Result[T]) Succeeded() []string {
	var ok []string
	for _, target := range r.Targets {
		if _, found := r.Outputs[target]; found {
			ok = append(ok, target)
		}
	}
	return ok
}

// Run calls fn once per distinct target and waits for all of them. limit caps
// how many calls run at once; zero or less means no cap. A panicking call is
// recorded as that target's failure.
func Run[T any](ctx context.Context, targets []string, limit int, fn func(ctx context.Context, target string) (T, error)) Result[T] {
	res := Result[T]{
		Targets: distinct(targets),
		Outputs: make(map[string]T),
		Errors:  make(map[string]error),
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, target := range res.Targets {
		g.Go(func() error {
			out, err := call(ctx, target, fn)

			// Results are only published once the call has settled
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors[target] = err
			} else {
				res.Outputs[target] = out
			}
			return nil
		})
	}

	_ = g.Wait()
	return res
}

func call[T any](ctx context.Context, target string, fn func(context.Context, string) (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("target %s panicked: %v", target, r)
		}
	}()
	return fn(ctx, target)
}

func distinct(targets []string) []string {
	seen := make(map[string]struct{}, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
