// Package server implements the HTTP gateway between the dashboard and the
// workflow service. It keeps the upstream API keys on the server side, runs
// workflows on behalf of the browser and re-emits their progress as
// Server-Sent Events.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/history"
	"github.com/Backland-Labs/outreach/internal/logger"
	"github.com/Backland-Labs/outreach/internal/progress"
	"github.com/Backland-Labs/outreach/internal/workflow"
)

const (
	defaultKeepAlive    = 30 * time.Second
	defaultChatEndpoint = "chat"
	shutdownTimeout     = 5 * time.Second
)

// ErrServerRunning is returned when attempting to start an already running server
var ErrServerRunning = errors.New("server is already running")

// Client is what the gateway needs from the workflow client
type Client interface {
	workflow.Runner
	Chat(ctx context.Context, endpoint string, req dify.ChatRequest, onAnswer func(delta string)) (dify.ChatReply, error)
	HasEndpoint(name string) bool
}

// Options configures a Server
type Options struct {
	// Port to listen on; 0 picks a free port on localhost
	Port int

	// AllowOrigin is sent as Access-Control-Allow-Origin when non-empty
	AllowOrigin string

	// KeepAlive is the interval between comments on idle event streams
	KeepAlive time.Duration

	// FanoutLimit caps concurrent per-platform calls in a batch
	FanoutLimit int

	// Hidden nodes are left out of batch progress
	Hidden progress.HiddenSet

	// ChatEndpoint names the support-chat application
	ChatEndpoint string

	// History records finished work; nil disables it
	History *history.Store

	// Gatherer backs /metrics; nil disables it
	Gatherer prometheus.Gatherer
}

// Server is the dashboard gateway
type Server struct {
	client Client
	opts   Options

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
}

// NewServer creates a gateway. The server is not started; use Start.
func NewServer(client Client, opts Options) *Server {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = defaultKeepAlive
	}
	if opts.ChatEndpoint == "" {
		opts.ChatEndpoint = defaultChatEndpoint
	}

	logger.WithFields(map[string]interface{}{
		"port":         opts.Port,
		"fanout_limit": opts.FanoutLimit,
		"history":      opts.History != nil,
	}).Debug("Creating gateway server")

	return &Server{client: client, opts: opts}
}

// Handler returns the gateway's routes wrapped in its middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	if s.opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("GET /api/workflows", s.workflowsListHandler)
	mux.HandleFunc("POST /api/workflows/{kind}/run", s.workflowRunHandler)
	mux.HandleFunc("POST /api/copywriting/batch", s.copywritingBatchHandler)
	mux.HandleFunc("POST /api/review", s.reviewHandler)
	mux.HandleFunc("POST /api/chat", s.chatHandler)
	mux.HandleFunc("GET /api/history", s.historyHandler)

	var h http.Handler = mux
	h = s.corsMiddleware(h)
	h = logger.HTTPMiddleware(logger.GetLogger())(h)
	h = requestIDMiddleware(h)
	return h
}

// Start begins listening and serves until ctx is canceled.
// Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerRunning
	}
	s.running = true
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		s.setStopped()
		return ctx.Err()
	default:
	}

	addr := fmt.Sprintf("0.0.0.0:%d", s.opts.Port)
	if s.opts.Port == 0 {
		addr = "localhost:0"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.setStopped()
		logger.WithFields(map[string]interface{}{
			"error":   err.Error(),
			"address": addr,
		}).Error("Failed to create listener")
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.listener = ln
	s.httpServer = srv
	s.mu.Unlock()

	logger.WithField("address", ln.Addr().String()).Info("Gateway listening")

	go func() {
		<-ctx.Done()
		logger.Info("Gateway shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithField("error", err.Error()).Error("Error during server shutdown")
		}
	}()

	err = srv.Serve(ln)
	s.setStopped()

	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Gateway shut down gracefully")
	}
	return err
}

func (s *Server) setStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.listener = nil
}

// Address returns the address the server is listening on, or "" when stopped
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AllowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.opts.AllowOrigin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
