package dify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Backland-Labs/outreach/internal/sse"
)

// EmptyAnswerFallback is shown when a chat stream produced no answer text
const EmptyAnswerFallback = "抱歉，暂时无法回答。请稍后再试。"

// ChatRequest is one user turn of a support conversation
type ChatRequest struct {
	Query string

	// ConversationID continues an earlier conversation when non-empty
	ConversationID string

	User string
}

// ChatReply is the assembled assistant answer
type ChatReply struct {
	Answer         string
	ConversationID string
}

// Text returns the answer, or the fallback when nothing was streamed
func (r ChatReply) Text() string {
	if r.Answer == "" {
		return EmptyAnswerFallback
	}
	return r.Answer
}

type chatBody struct {
	Inputs         Inputs       `json:"inputs"`
	Query          string       `json:"query"`
	ResponseMode   ResponseMode `json:"response_mode"`
	ConversationID string       `json:"conversation_id"`
	User           string       `json:"user"`
}

type chatFrame struct {
	Event          string `json:"event"`
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
}

// Chat sends one query to a chat application and streams the answer. onAnswer,
// when set, receives each answer delta as it arrives.
func (c *Client) Chat(ctx context.Context, endpoint string, req ChatRequest, onAnswer func(delta string)) (reply ChatReply, err error) {
	ep, err := c.endpoint(endpoint)
	if err != nil {
		return ChatReply{}, err
	}

	log := c.logger.WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"mode":     modeChat,
	})
	start := time.Now()
	defer func() {
		c.metrics.observe(endpoint, modeChat, start, err)
		if err != nil {
			log.WithError(err).Debug("Chat call failed")
		}
	}()

	body, err := c.openStream(ctx, ep, "/chat-messages", chatBody{
		Inputs:         Inputs{},
		Query:          req.Query,
		ResponseMode:   ResponseModeStreaming,
		ConversationID: req.ConversationID,
		User:           c.userOrDefault(req.User),
	})
	if err != nil {
		return ChatReply{}, fmt.Errorf("failed to open chat %s: %w", endpoint, err)
	}

	reply.ConversationID = req.ConversationID
	for frame, err := range sse.Frames(body) {
		if err != nil {
			return reply, fmt.Errorf("failed to read chat %s stream: %w", endpoint, err)
		}

		var f chatFrame
		if err := json.Unmarshal([]byte(frame.Data), &f); err != nil {
			c.metrics.noiseFrame(endpoint)
			continue
		}

		if f.Event == "message" || f.Event == "agent_message" {
			reply.Answer += f.Answer
			if onAnswer != nil && f.Answer != "" {
				onAnswer(f.Answer)
			}
		}
		if f.ConversationID != "" && reply.ConversationID == "" {
			reply.ConversationID = f.ConversationID
		}
	}

	return reply, nil
}
