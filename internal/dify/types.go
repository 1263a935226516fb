package dify

import (
	"encoding/json"

	"github.com/Backland-Labs/outreach/internal/sse"
)

// Inputs are the named string or number values a workflow is invoked with
type Inputs map[string]any

// Outputs is the result object of a finished workflow, forwarded as-is
type Outputs map[string]any

// ResponseMode selects how the workflow service answers a run request
type ResponseMode string

const (
	// ResponseModeBlocking returns one JSON document when the run is over
	ResponseModeBlocking ResponseMode = "blocking"
	// ResponseModeStreaming returns an event stream while the run executes
	ResponseModeStreaming ResponseMode = "streaming"
)

// Request is the body of a workflow run
type Request struct {
	Inputs       Inputs       `json:"inputs"`
	ResponseMode ResponseMode `json:"response_mode"`
	User         string       `json:"user"`
}

// Event names carried inside the streaming envelope
const (
	EventNodeStarted      = "node_started"
	EventNodeFinished     = "node_finished"
	EventWorkflowFinished = "workflow_finished"
)

// Status is the state of one workflow node
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ProgressEvent reports that a node started or finished
type ProgressEvent struct {
	Event     string `json:"event"`
	NodeTitle string `json:"node_title"`
	NodeType  string `json:"node_type"`
	NodeIndex int    `json:"node_index"`
	Status    Status `json:"status"`

	// ElapsedTime is in seconds and only set on node_finished when the
	// service reported it
	ElapsedTime *float64 `json:"elapsed_time,omitempty"`
}

// Finished reports whether the node has settled
func (e ProgressEvent) Finished() bool {
	return e.Event == EventNodeFinished
}

// Endpoint is one workflow application
type Endpoint struct {
	// URL is the application base; runs are posted to URL + "/run"
	URL string

	// APIKey is sent as a bearer token
	APIKey string
}

// Noise describes a frame that was skipped because it could not be interpreted
type Noise struct {
	Frame sse.Frame
	Err   error
}

// StreamOptions receives what a streaming call observes before it settles.
// Both callbacks run on the calling goroutine in decode order.
type StreamOptions struct {
	OnProgress func(ProgressEvent)
	OnNoise    func(Noise)
}

func (o StreamOptions) progress(ev ProgressEvent) {
	if o.OnProgress != nil {
		o.OnProgress(ev)
	}
}

func (o StreamOptions) noise(n Noise) {
	if o.OnNoise != nil {
		o.OnNoise(n)
	}
}

// blockingResponse is the document returned for a blocking run
type blockingResponse struct {
	WorkflowRunID string `json:"workflow_run_id"`
	TaskID        string `json:"task_id"`
	Data          struct {
		ID          string  `json:"id"`
		WorkflowID  string  `json:"workflow_id"`
		Status      string  `json:"status"`
		Outputs     Outputs `json:"outputs"`
		Error       *string `json:"error"`
		ElapsedTime float64 `json:"elapsed_time"`
		TotalTokens int     `json:"total_tokens"`
		TotalSteps  int     `json:"total_steps"`
		CreatedAt   int64   `json:"created_at"`
		FinishedAt  int64   `json:"finished_at"`
	} `json:"data"`
}

// envelope is the JSON object carried in every data line of a run stream.
// The event type lives here, not in the SSE event field.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// nodeData is decoded weakly: the service is not consistent about sending
// index and elapsed_time as numbers
type nodeData struct {
	Title       string   `mapstructure:"title"`
	NodeType    string   `mapstructure:"node_type"`
	Index       int      `mapstructure:"index"`
	Status      string   `mapstructure:"status"`
	ElapsedTime *float64 `mapstructure:"elapsed_time"`
}

type finishedData struct {
	Status  string          `json:"status"`
	Outputs json.RawMessage `json:"outputs"`
}
