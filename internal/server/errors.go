package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/logger"
)

const (
	contentTypeJSON = "application/json"
	requestIDHeader = "X-Request-ID"
)

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusForError maps a workflow failure onto the gateway's answer. Upstream
// transport and protocol failures are both reported as bad gateway.
func statusForError(err error) int {
	switch {
	case errors.Is(err, dify.ErrUnknownEndpoint):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case dify.IsTransport(err), dify.IsProtocol(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorKind(err error) string {
	var apiErr *dify.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind.String()
	}
	return ""
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, errorBody{Error: message})
}

func respondWithWorkflowError(w http.ResponseWriter, err error) {
	respondWithJSON(w, statusForError(err), errorBody{Error: dify.Message(err), Kind: errorKind(err)})
}

func respondWithJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithFields(map[string]interface{}{
			"error":       err.Error(),
			"status_code": statusCode,
		}).Error("Failed to encode response")
	}
}

// requestIDMiddleware tags each request with an ID, reusing the caller's
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
