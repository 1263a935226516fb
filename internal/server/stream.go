package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Backland-Labs/outreach/internal/logger"
	"github.com/Backland-Labs/outreach/internal/sse"
)

// Event names written to dashboard streams
const (
	eventProgress = "progress"
	eventStages   = "stages"
	eventResult   = "result"
	eventError    = "error"
	eventAnswer   = "answer"
	eventDone     = "done"
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// eventStream writes SSE frames to one client. Writes may come from several
// goroutines, so every frame is written and flushed under a lock.
type eventStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

func openEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventStream{w: w, flusher: flusher}, nil
}

// send writes one JSON event. Failures are logged; a client that went away
// is noticed through the request context.
func (es *eventStream) send(event string, v any) {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.closed {
		return
	}
	if err := sse.WriteJSON(es.w, event, v); err != nil {
		logger.WithField("event", event).WithError(err).Debug("Failed to write SSE event")
		return
	}
	es.flusher.Flush()
}

func (es *eventStream) comment(text string) {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.closed {
		return
	}
	if err := sse.WriteComment(es.w, text); err == nil {
		es.flusher.Flush()
	}
}

// close stops further writes. The handler must not return before close, as
// the response writer is invalid afterwards.
func (es *eventStream) close() {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.closed = true
}

// keepAlive writes a comment every interval until the returned func is called
func (es *eventStream) keepAlive(ctx context.Context, interval time.Duration) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				es.comment("keep-alive")
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
