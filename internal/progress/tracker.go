package progress

import (
	"sync"

	"github.com/Backland-Labs/outreach/internal/dify"
)

// Tracker keeps a separate event log per target so that concurrent calls
// never mix their progress. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	order    []string
	events   map[string][]dify.ProgressEvent
	onUpdate func(target string, ev dify.ProgressEvent)
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{events: make(map[string][]dify.ProgressEvent)}
}

// OnUpdate registers fn to run after every recorded event. fn is called
// outside the tracker's lock.
func (t *Tracker) OnUpdate(fn func(target string, ev dify.ProgressEvent)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUpdate = fn
}

// Callback returns a progress callback bound to target
func (t *Tracker) Callback(target string) func(dify.ProgressEvent) {
	return func(ev dify.ProgressEvent) {
		t.Record(target, ev)
	}
}

// Record appends ev to target's log
func (t *Tracker) Record(target string, ev dify.ProgressEvent) {
	t.mu.Lock()
	if _, ok := t.events[target]; !ok {
		t.order = append(t.order, target)
	}
	t.events[target] = append(t.events[target], ev)
	fn := t.onUpdate
	t.mu.Unlock()

	if fn != nil {
		fn(target, ev)
	}
}

// Events returns a copy of everything recorded for target, in arrival order
func (t *Tracker) Events(target string) []dify.ProgressEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]dify.ProgressEvent(nil), t.events[target]...)
}

// Steps returns target's deduplicated step list
func (t *Tracker) Steps(target string) []dify.ProgressEvent {
	return Dedup(t.Events(target))
}

// Targets lists targets in the order their first event arrived
func (t *Tracker) Targets() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

// Reset forgets every target
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order = nil
	t.events = make(map[string][]dify.ProgressEvent)
}
