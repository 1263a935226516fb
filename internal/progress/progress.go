// Package progress turns the raw node events of workflow calls into the step
// lists shown to editors.
//
// A workflow engine may report the same node several times when it retries
// it internally. Node titles are stable identifiers, so a later event for a
// title always supersedes the earlier one; Dedup applies that rule.
package progress

import (
	"github.com/Backland-Labs/outreach/internal/dify"
)

// Dedup keeps the latest event for each node title. Titles appear in the
// order they were first seen. Applying Dedup to its own output is a no-op.
func Dedup(events []dify.ProgressEvent) []dify.ProgressEvent {
	if len(events) == 0 {
		return nil
	}

	index := make(map[string]int, len(events))
	out := make([]dify.ProgressEvent, 0, len(events))
	for _, ev := range events {
		if i, ok := index[ev.NodeTitle]; ok {
			out[i] = ev
			continue
		}
		index[ev.NodeTitle] = len(out)
		out = append(out, ev)
	}
	return out
}

// HiddenSet holds node titles that are plumbing rather than editorial steps
type HiddenSet map[string]struct{}

// NewHiddenSet builds a set from titles
func NewHiddenSet(titles ...string) HiddenSet {
	set := make(HiddenSet, len(titles))
	for _, t := range titles {
		set[t] = struct{}{}
	}
	return set
}

// Contains reports whether title is hidden. A nil set hides nothing.
func (h HiddenSet) Contains(title string) bool {
	_, ok := h[title]
	return ok
}

// Filter returns the events whose node is not hidden
func Filter(events []dify.ProgressEvent, hidden HiddenSet) []dify.ProgressEvent {
	var out []dify.ProgressEvent
	for _, ev := range events {
		if !hidden.Contains(ev.NodeTitle) {
			out = append(out, ev)
		}
	}
	return out
}

// Hide wraps next so that events for hidden nodes are dropped
func Hide(hidden HiddenSet, next func(dify.ProgressEvent)) func(dify.ProgressEvent) {
	return func(ev dify.ProgressEvent) {
		if next == nil || hidden.Contains(ev.NodeTitle) {
			return
		}
		next(ev)
	}
}

// Tee returns a callback that forwards each event to every non-nil callback in order
func Tee(callbacks ...func(dify.ProgressEvent)) func(dify.ProgressEvent) {
	return func(ev dify.ProgressEvent) {
		for _, cb := range callbacks {
			if cb != nil {
				cb(ev)
			}
		}
	}
}
