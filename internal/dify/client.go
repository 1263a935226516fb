package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Backland-Labs/outreach/internal/logger"
	"github.com/Backland-Labs/outreach/internal/sse"
)

// DefaultUser is the caller identity used when none is given
const DefaultUser = "web-user"

const eventStreamType = "text/event-stream"

// Client calls workflow applications. It holds no per-call state, so any
// number of calls may run concurrently.
type Client struct {
	endpoints map[string]Endpoint
	http      *resty.Client
	logger    *logger.Logger
	metrics   *Metrics
	timeout   time.Duration
	user      string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying resty client
func WithHTTPClient(hc *resty.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics enables call telemetry
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTimeout bounds blocking calls. Streams are bounded by their context only.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithDefaultUser sets the identity sent when a call passes an empty user
func WithDefaultUser(user string) Option {
	return func(c *Client) {
		if user != "" {
			c.user = user
		}
	}
}

// NewClient creates a client for the named endpoints
func NewClient(endpoints map[string]Endpoint, opts ...Option) (*Client, error) {
	table := make(map[string]Endpoint, len(endpoints))
	for name, ep := range endpoints {
		if ep.URL == "" {
			return nil, fmt.Errorf("endpoint %s: URL is required", name)
		}
		u, err := url.Parse(ep.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, fmt.Errorf("endpoint %s: invalid URL %q", name, ep.URL)
		}
		ep.URL = strings.TrimRight(ep.URL, "/")
		table[name] = ep
	}

	c := &Client{
		endpoints: table,
		logger:    logger.GetLogger(),
		user:      DefaultUser,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = resty.New()
	}
	c.http.SetHeader("Content-Type", "application/json")
	return c, nil
}

// Endpoints returns the configured endpoint names in sorted order
func (c *Client) Endpoints() []string {
	names := make([]string, 0, len(c.endpoints))
	for name := range c.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasEndpoint reports whether name is configured
func (c *Client) HasEndpoint(name string) bool {
	_, ok := c.endpoints[name]
	return ok
}

func (c *Client) endpoint(name string) (Endpoint, error) {
	ep, ok := c.endpoints[name]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
	}
	return ep, nil
}

func (c *Client) userOrDefault(user string) string {
	if user == "" {
		return c.user
	}
	return user
}

// Run executes a workflow in blocking mode and returns its outputs
func (c *Client) Run(ctx context.Context, endpoint string, inputs Inputs, user string) (out Outputs, err error) {
	ep, err := c.endpoint(endpoint)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log := c.logger.WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"mode":     modeBlocking,
	})
	start := time.Now()
	defer func() {
		c.metrics.observe(endpoint, modeBlocking, start, err)
		if err != nil {
			log.WithError(err).Debug("Workflow call failed")
		} else {
			log.WithDuration(time.Since(start)).Debug("Workflow call succeeded")
		}
	}()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+ep.APIKey).
		SetHeader("Accept", "application/json").
		SetBody(Request{
			Inputs:       nonNil(inputs),
			ResponseMode: ResponseModeBlocking,
			User:         c.userOrDefault(user),
		}).
		Post(ep.URL + "/run")
	if err != nil {
		return nil, fmt.Errorf("failed to run workflow %s: %w", endpoint, err)
	}

	if !resp.IsSuccess() {
		return nil, transportError(resp.StatusCode(), string(resp.Body()))
	}

	var body blockingResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, protocolError(err, "Malformed workflow response")
	}

	if body.Data.Status != string(StatusSucceeded) {
		msg := fmt.Sprintf("Workflow status: %s", body.Data.Status)
		if body.Data.Error != nil && *body.Data.Error != "" {
			msg = *body.Data.Error
		}
		return nil, protocolError(ErrWorkflowFailed, msg)
	}

	return body.Data.Outputs, nil
}

// RunStreaming executes a workflow in streaming mode. Progress and noise are
// reported through opts while the stream is read; the stream is drained to
// its end and the last workflow result wins.
func (c *Client) RunStreaming(ctx context.Context, endpoint string, inputs Inputs, opts StreamOptions, user string) (out Outputs, err error) {
	ep, err := c.endpoint(endpoint)
	if err != nil {
		return nil, err
	}

	log := c.logger.WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"mode":     modeStreaming,
	})
	start := time.Now()
	defer func() {
		c.metrics.observe(endpoint, modeStreaming, start, err)
		if err != nil {
			log.WithError(err).Debug("Workflow stream failed")
		} else {
			log.WithDuration(time.Since(start)).Debug("Workflow stream completed")
		}
	}()

	body, err := c.openStream(ctx, ep, "/run", Request{
		Inputs:       nonNil(inputs),
		ResponseMode: ResponseModeStreaming,
		User:         c.userOrDefault(user),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stream workflow %s: %w", endpoint, err)
	}

	var result Outputs
	for frame, err := range sse.Frames(body) {
		if err != nil {
			return nil, fmt.Errorf("failed to read workflow %s stream: %w", endpoint, err)
		}

		decoded := decodeFrame(frame)
		switch decoded.kind {
		case frameProgress:
			c.metrics.progressEvent(endpoint, decoded.progress.Event)
			opts.progress(decoded.progress)
		case frameResult:
			result = decoded.outputs
		case frameNoise:
			c.metrics.noiseFrame(endpoint)
			log.WithError(decoded.err).Debug("Skipping undecodable frame")
			opts.noise(Noise{Frame: frame, Err: decoded.err})
		}
	}

	if result == nil {
		return nil, protocolError(ErrNoOutputs, "Workflow stream ended without producing outputs")
	}
	return result, nil
}

// openStream posts payload and returns the event-stream body. The caller owns
// the body on success.
func (c *Client) openStream(ctx context.Context, ep Endpoint, path string, payload any) (io.ReadCloser, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", eventStreamType)
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Authorization", "Bearer "+ep.APIKey)

	resp, err := c.http.GetClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var text string
		if resp.Body != nil {
			raw, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			text = string(raw)
		}
		return nil, transportError(resp.StatusCode, text)
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, protocolError(ErrStreamUnsupported, "Response body is null, streaming not supported")
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != eventStreamType {
			_ = resp.Body.Close()
			return nil, protocolError(ErrStreamUnsupported, "Response is "+ct+", streaming not supported")
		}
	}

	return resp.Body, nil
}

func nonNil(inputs Inputs) Inputs {
	if inputs == nil {
		return Inputs{}
	}
	return inputs
}
