package logger

import (
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.size += size
	return size, err
}

// Flush implements the http.Flusher interface
func (w *responseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func isEventStream(w http.ResponseWriter) bool {
	return w.Header().Get("Content-Type") == "text/event-stream"
}

// HTTPMiddleware creates a logging middleware for HTTP requests.
// Streaming responses are logged as SSE connections with their lifetime.
func HTTPMiddleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger.WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})
			reqLogger.Debug("Request received")

			wrapped := &responseWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			reqLogger = reqLogger.WithDuration(duration).WithFields(map[string]interface{}{
				"status": wrapped.status,
				"size":   wrapped.size,
			})

			if isEventStream(wrapped) {
				reqLogger.WithField("connection_type", "sse").Info("SSE connection closed")
				return
			}

			switch {
			case wrapped.status >= 500:
				reqLogger.Error("Request failed with server error")
			case wrapped.status >= 400:
				reqLogger.Warn("Request failed with client error")
			default:
				reqLogger.Info("Request completed")
			}

			if duration > 30*time.Second {
				reqLogger.Warnf("Slow request detected: %v", duration)
			}
		})
	}
}
