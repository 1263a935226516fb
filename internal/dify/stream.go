package dify

import (
	"context"
	"sync"
)

// progressBuffer is the capacity of the channel returned by Progress. Events
// beyond it wait in the stream's queue, never in the reader.
const progressBuffer = 16

// Stream is a streaming call running in its own goroutine. Progress is
// delivered on a channel and the terminal value is returned by Wait. The call
// settles whether or not Progress is read.
type Stream struct {
	progress chan ProgressEvent
	done     chan struct{}
	outputs  Outputs
	err      error

	mu      sync.Mutex
	queue   []ProgressEvent
	settled bool
	wake    chan struct{}
}

// Stream starts a streaming call and returns immediately
func (c *Client) Stream(ctx context.Context, endpoint string, inputs Inputs, user string) *Stream {
	s := &Stream{
		progress: make(chan ProgressEvent, progressBuffer),
		done:     make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}

	go func() {
		defer close(s.done)

		out, err := c.RunStreaming(ctx, endpoint, inputs, StreamOptions{OnProgress: s.push}, user)
		s.outputs, s.err = out, err

		s.mu.Lock()
		s.settled = true
		s.mu.Unlock()
		s.signal()
	}()
	go s.forward(ctx)

	return s
}

func (s *Stream) push(ev ProgressEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.signal()
}

func (s *Stream) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// forward moves queued events onto the progress channel and closes it once
// the call has settled and the queue is empty. Undelivered events are dropped
// when ctx is canceled.
func (s *Stream) forward(ctx context.Context) {
	defer close(s.progress)

	for {
		s.mu.Lock()
		pending := s.queue
		s.queue = nil
		settled := s.settled
		s.mu.Unlock()

		if len(pending) == 0 {
			if settled {
				return
			}
			<-s.wake
			continue
		}

		for _, ev := range pending {
			select {
			case s.progress <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Progress returns the progress events in arrival order. The channel is
// closed after the call has settled and every event has been received.
func (s *Stream) Progress() <-chan ProgressEvent {
	return s.progress
}

// Done is closed once the call has settled, even if progress is unread
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Result returns the outputs and error of a settled call. It must only be
// called after Done is closed.
func (s *Stream) Result() (Outputs, error) {
	return s.outputs, s.err
}

// Wait discards any progress not yet received and returns the result
func (s *Stream) Wait() (Outputs, error) {
	for range s.progress {
	}
	<-s.done
	return s.outputs, s.err
}
