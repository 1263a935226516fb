package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/fanout"
	"github.com/Backland-Labs/outreach/internal/history"
	"github.com/Backland-Labs/outreach/internal/logger"
	"github.com/Backland-Labs/outreach/internal/progress"
	"github.com/Backland-Labs/outreach/internal/workflow"
)

const (
	maxBodyBytes  = 1 << 20
	titleRunes    = 40
	summaryRunes  = 120
	statusSuccess = "succeeded"
	statusFailure = "failed"
	statusPartial = "partial"
)

// titleKeys are the inputs tried, in order, to name a history entry
var titleKeys = []string{"topic", "goal", "event_description", "target_name", "query", "content"}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "outreach-gateway",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// workflowsListHandler lists every workflow kind and whether it can be run
func (s *Server) workflowsListHandler(w http.ResponseWriter, r *http.Request) {
	kinds := workflow.Kinds()
	list := make([]workflowInfo, 0, len(kinds))
	for _, info := range kinds {
		list = append(list, workflowInfo{KindInfo: info, Configured: s.client.HasEndpoint(string(info.Kind))})
	}
	respondWithJSON(w, http.StatusOK, list)
}

// workflowRunHandler runs one workflow, answering with JSON in blocking mode
// or re-emitting progress as SSE in streaming mode
func (s *Server) workflowRunHandler(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	if !s.client.HasEndpoint(kind) {
		respondWithError(w, http.StatusNotFound, "unknown workflow: "+kind)
		return
	}

	var req runRequest
	if !decodeBody(w, r, &req) {
		return
	}

	log := logger.WithFields(map[string]interface{}{
		"kind":       kind,
		"mode":       req.ResponseMode,
		"request_id": r.Header.Get(requestIDHeader),
	})

	switch req.ResponseMode {
	case "", dify.ResponseModeBlocking:
		out, err := s.client.Run(r.Context(), kind, req.Inputs, req.User)
		s.record(kind, req.Inputs, out, err)
		if err != nil {
			log.WithError(err).Warn("Workflow run failed")
			respondWithWorkflowError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, runResponse{Outputs: out})

	case dify.ResponseModeStreaming:
		es, err := openEventStream(w)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Streaming unsupported")
			return
		}
		defer es.close()
		stop := es.keepAlive(r.Context(), s.opts.KeepAlive)

		out, err := s.client.RunStreaming(r.Context(), kind, req.Inputs, dify.StreamOptions{
			OnProgress: func(ev dify.ProgressEvent) { es.send(eventProgress, ev) },
		}, req.User)
		stop()

		s.record(kind, req.Inputs, out, err)
		if err != nil {
			log.WithError(err).Warn("Workflow stream failed")
			es.send(eventError, errorBody{Error: dify.Message(err), Kind: errorKind(err)})
			return
		}
		es.send(eventResult, runResponse{Outputs: out})

	default:
		respondWithError(w, http.StatusBadRequest, "response_mode must be blocking or streaming")
	}
}

// copywritingBatchHandler writes copy for several platforms at once. Progress
// is tagged by platform and the final result lists which platforms failed.
func (s *Server) copywritingBatchHandler(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		respondWithError(w, http.StatusBadRequest, "topic is required")
		return
	}
	if len(req.Platforms) == 0 {
		req.Platforms = workflow.Platforms
	}

	es, err := openEventStream(w)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	defer es.close()
	stop := es.keepAlive(r.Context(), s.opts.KeepAlive)

	tracker := progress.NewTracker()
	tracker.OnUpdate(func(target string, ev dify.ProgressEvent) {
		es.send(eventProgress, batchProgress{Target: target, ProgressEvent: ev})
	})

	res := workflow.GenerateCopywriting(r.Context(), s.client, workflow.CopywritingInput{
		Topic:       req.Topic,
		Description: req.Description,
		Style:       req.Style,
		Reference:   req.Reference,
	}, req.Platforms, workflow.GenerateOptions{
		Limit:   s.opts.FanoutLimit,
		Hidden:  s.opts.Hidden,
		Tracker: tracker,
		User:    req.User,
	})
	stop()

	result := batchResult{
		Results: res.Outputs,
		Errors:  make(map[string]string, len(res.Errors)),
		Missing: res.Missing(),
	}
	if result.Missing == nil {
		result.Missing = []string{}
	}
	for target, err := range res.Errors {
		result.Errors[target] = dify.Message(err)
	}
	var fe *fanout.Error
	if errors.As(res.Err(), &fe) {
		result.Error = fe.Join(dify.Message)
	}

	s.recordBatch(req, res)
	es.send(eventResult, result)
}

// reviewHandler runs the three-stage review and streams the stage board
func (s *Server) reviewHandler(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondWithError(w, http.StatusBadRequest, "content is required")
		return
	}

	es, err := openEventStream(w)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	defer es.close()
	stop := es.keepAlive(r.Context(), s.opts.KeepAlive)

	board := progress.NewStageBoard()
	report, err := workflow.RunReview(r.Context(), s.client, workflow.ReviewInput{
		Content:  req.Content,
		Platform: req.Platform,
	}, board, func(dify.ProgressEvent) {
		es.send(eventStages, newStagesEvent(board))
	}, req.User)
	stop()

	es.send(eventStages, newStagesEvent(board))

	entry := history.Entry{Kind: string(workflow.KindReview), Title: clip(firstNonEmpty(req.Title, req.Content), titleRunes)}
	if err != nil {
		entry.Status = statusFailure
		entry.Error = dify.Message(err)
		s.addHistory(entry)
		es.send(eventError, errorBody{Error: dify.Message(err), Kind: errorKind(err)})
		return
	}
	entry.Status = report.FinalStatus
	entry.Summary = clip(report.Summary, summaryRunes)
	s.addHistory(entry)
	es.send(eventResult, report)
}

// chatHandler relays one support-chat turn as answer deltas
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondWithError(w, http.StatusBadRequest, "query is required")
		return
	}
	if !s.client.HasEndpoint(s.opts.ChatEndpoint) {
		respondWithError(w, http.StatusNotFound, "chat is not configured")
		return
	}

	es, err := openEventStream(w)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	defer es.close()

	reply, err := s.client.Chat(r.Context(), s.opts.ChatEndpoint, dify.ChatRequest{
		Query:          strings.TrimSpace(req.Query),
		ConversationID: req.ConversationID,
		User:           req.User,
	}, func(delta string) {
		es.send(eventAnswer, answerDelta{Delta: delta})
	})
	if err != nil {
		es.send(eventError, errorBody{Error: dify.Message(err), Kind: errorKind(err)})
		return
	}
	es.send(eventDone, chatDone{Answer: reply.Text(), ConversationID: reply.ConversationID})
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	entries := []history.Entry{}
	if s.opts.History != nil {
		if list := s.opts.History.List(r.URL.Query().Get("kind")); list != nil {
			entries = list
		}
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Infof("Invalid JSON payload: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}
	return true
}

func (s *Server) addHistory(e history.Entry) {
	if s.opts.History != nil {
		s.opts.History.Add(e)
	}
}

func (s *Server) record(kind string, inputs dify.Inputs, out dify.Outputs, err error) {
	entry := history.Entry{Kind: kind, Title: clip(inputTitle(inputs), titleRunes), Status: statusSuccess}
	if err != nil {
		entry.Status = statusFailure
		entry.Error = dify.Message(err)
	} else if text, ok := out["result"].(string); ok {
		entry.Summary = clip(text, summaryRunes)
	}
	s.addHistory(entry)
}

func (s *Server) recordBatch(req batchRequest, res fanout.Result[workflow.CopywritingOutput]) {
	entry := history.Entry{
		Kind:    string(workflow.KindCopywriting),
		Title:   clip(req.Topic, titleRunes),
		Targets: res.Succeeded(),
		Status:  statusSuccess,
	}
	switch {
	case len(res.Outputs) == 0:
		entry.Status = statusFailure
	case len(res.Errors) > 0:
		entry.Status = statusPartial
	}
	if err := res.Err(); err != nil {
		entry.Error = err.Error()
	}
	s.addHistory(entry)
}

func inputTitle(inputs dify.Inputs) string {
	for _, key := range titleKeys {
		if v, ok := inputs[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// clip shortens s to n runes
func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
