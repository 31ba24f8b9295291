package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkJSON(id, model string, created int64, content string) string {
	return fmt.Sprintf(`{"id":%q,"object":"chat.completion.chunk","created":%d,"model":%q,"choices":[{"index":0,"delta":{"role":"assistant","content":%q},"finish_reason":null}]}`,
		id, created, model, content)
}

func newEventStreamServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(ClientOptions{BaseURL: server.URL + "/", APIKey: "test"})
}

func userRequest(stream bool) conversation.Request {
	return conversation.Request{
		Model:    "gpt-x",
		Messages: []conversation.Message{{Role: conversation.RoleUser, Content: "hi"}},
		Stream:   stream,
	}
}

func TestClient_Stream(t *testing.T) {
	server := newEventStreamServer(t,
		chunkJSON("c1", "gpt-x", 1, "Hel"),
		chunkJSON("c2", "gpt-y", 2, "lo"),
	)

	var tokens []string
	completion, err := newTestClient(server).Complete(context.Background(), userRequest(true), func(token string) {
		tokens = append(tokens, token)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "lo"}, tokens)
	assert.Equal(t, "c1", completion.ID)
	assert.Equal(t, "gpt-x", completion.Model)
	assert.Equal(t, int64(1), completion.Created)

	reply, err := completion.Reply()
	require.NoError(t, err)
	assert.Equal(t, conversation.Message{Role: conversation.RoleAssistant, Content: "Hello"}, reply)
}

func TestClient_StreamCancelled(t *testing.T) {
	server := newEventStreamServer(t,
		chunkJSON("c1", "gpt-x", 1, "Hel"),
		chunkJSON("c1", "gpt-x", 1, "lo"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	completion, err := newTestClient(server).Complete(ctx, userRequest(true), func(string) {
		cancel()
	})
	require.NoError(t, err)

	reply, err := completion.Reply()
	require.NoError(t, err)
	assert.Equal(t, "Hel", reply.Content)
	assert.Equal(t, "c1", completion.ID)
	assert.Equal(t, FinishReason, completion.Choices[0].FinishReason)
}

func TestClient_Sync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cmpl-1","object":"chat.completion","created":7,"model":"gpt-x",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"Hello"},"finish_reason":"stop"}],`+
			`"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
	}))
	t.Cleanup(server.Close)

	var tokens []string
	completion, err := newTestClient(server).Complete(context.Background(), userRequest(false), func(token string) {
		tokens = append(tokens, token)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello"}, tokens)
	assert.Equal(t, "cmpl-1", completion.ID)
	require.NotNil(t, completion.Usage)
	assert.Equal(t, conversation.NewUsage(3, 2), *completion.Usage)
}
