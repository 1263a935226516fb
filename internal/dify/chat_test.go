package dify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_AssemblesAnswer(t *testing.T) {
	var got map[string]any
	var path, auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path, auth = r.URL.Path, r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		streamHandler(
			`{"event":"message","answer":"电动车","conversation_id":"c-1"}`,
			`not json`,
			`{"event":"agent_thought","answer":"ignored"}`,
			`{"event":"agent_message","answer":"需要戴头盔。","conversation_id":"c-1"}`,
			`{"event":"message_end","conversation_id":"c-1"}`,
		)(w, r)
	})

	var deltas []string
	reply, err := c.Chat(context.Background(), testEndpoint, ChatRequest{Query: "要戴头盔吗"}, func(d string) {
		deltas = append(deltas, d)
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/workflows/chat-messages", path)
	assert.Equal(t, "Bearer app-test", auth)
	assert.Equal(t, "要戴头盔吗", got["query"])
	assert.Equal(t, "streaming", got["response_mode"])
	assert.Equal(t, DefaultUser, got["user"])

	assert.Equal(t, []string{"电动车", "需要戴头盔。"}, deltas)
	assert.Equal(t, "电动车需要戴头盔。", reply.Text())
	assert.Equal(t, "c-1", reply.ConversationID)
}

func TestChat_KeepsCallerConversation(t *testing.T) {
	c := newTestClient(t, streamHandler(`{"event":"message","answer":"好","conversation_id":"server-id"}`))

	reply, err := c.Chat(context.Background(), testEndpoint, ChatRequest{Query: "q", ConversationID: "mine"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mine", reply.ConversationID)
}

func TestChat_EmptyAnswerFallsBack(t *testing.T) {
	c := newTestClient(t, streamHandler(`{"event":"message_end","conversation_id":"c-2"}`))

	reply, err := c.Chat(context.Background(), testEndpoint, ChatRequest{Query: "q"}, nil)
	require.NoError(t, err)
	assert.Empty(t, reply.Answer)
	assert.Equal(t, EmptyAnswerFallback, reply.Text())
}

func TestChat_TransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	})

	_, err := c.Chat(context.Background(), testEndpoint, ChatRequest{Query: "q"}, nil)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.True(t, strings.HasPrefix(Message(err), "Dify API error 401: invalid key"))
}
