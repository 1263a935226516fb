package server

import (
	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/progress"
	"github.com/Backland-Labs/outreach/internal/workflow"
)

// runRequest mirrors the workflow service's run body
type runRequest struct {
	Inputs       dify.Inputs       `json:"inputs"`
	ResponseMode dify.ResponseMode `json:"response_mode"`
	User         string            `json:"user"`
}

type runResponse struct {
	Outputs dify.Outputs `json:"outputs"`
}

// workflowInfo is one entry of the workflow listing
type workflowInfo struct {
	workflow.KindInfo
	Configured bool `json:"configured"`
}

type batchRequest struct {
	Topic       string   `json:"topic"`
	Description string   `json:"description"`
	Style       string   `json:"style"`
	Reference   string   `json:"reference"`
	Platforms   []string `json:"platforms"`
	User        string   `json:"user"`
}

// batchProgress is a progress event tagged with its platform
type batchProgress struct {
	Target string `json:"target"`
	dify.ProgressEvent
}

// batchResult reports every platform of a batch. A platform that failed is
// absent from Results and listed in Missing.
type batchResult struct {
	Results map[string]workflow.CopywritingOutput `json:"results"`
	Errors  map[string]string                     `json:"errors"`
	Error   string                                `json:"error,omitempty"`
	Missing []string                              `json:"missing"`
}

type reviewRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Platform string `json:"platform"`
	User     string `json:"user"`
}

type stageView struct {
	Name   string               `json:"name"`
	Status progress.StageStatus `json:"status"`
}

type stagesEvent struct {
	Stages []stageView `json:"stages"`
}

func newStagesEvent(board *progress.StageBoard) stagesEvent {
	statuses := board.Statuses()
	views := make([]stageView, len(statuses))
	for i, st := range statuses {
		name := ""
		if i < len(progress.ReviewStages) {
			name = progress.ReviewStages[i]
		}
		views[i] = stageView{Name: name, Status: st}
	}
	return stagesEvent{Stages: views}
}

type chatRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
	User           string `json:"user"`
}

type answerDelta struct {
	Delta string `json:"delta"`
}

type chatDone struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
}
