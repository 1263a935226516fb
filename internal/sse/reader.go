package sse

import (
	"errors"
	"io"
	"iter"
)

// readChunkSize is the size of each read from the underlying stream
const readChunkSize = 4096

// Frames returns a lazy sequence of the frames in body. The sequence is single
// pass: it consumes body as it goes and cannot be rewound.
//
// A read failure is yielded once as the error and ends the sequence. Text left
// in the buffer when the stream ends is dropped since it cannot be a complete
// frame. body is closed on every exit path, including when the consumer stops
// ranging early.
func Frames(body io.ReadCloser) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		defer body.Close()

		dec := NewDecoder()
		chunk := make([]byte, readChunkSize)
		for {
			n, err := body.Read(chunk)
			if n > 0 {
				for _, frame := range dec.Feed(chunk[:n]) {
					if !yield(frame, nil) {
						return
					}
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(Frame{}, err)
				}
				return
			}
		}
	}
}
