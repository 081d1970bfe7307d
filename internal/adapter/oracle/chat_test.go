package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overseer-ai/internal/domain"
	"overseer-ai/internal/infra/config"
)

func chatServer(t *testing.T, handler func(w http.ResponseWriter, req chatRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func reply(w http.ResponseWriter, content string) {
	resp := chatResponse{}
	resp.Choices = append(resp.Choices, struct {
		Message chatMessage `json:"message"`
	}{Message: chatMessage{Role: domain.RoleAssistant, Content: content}})
	json.NewEncoder(w).Encode(resp)
}

func testOracle(srv *httptest.Server) *ChatOracle {
	return NewChatOracle(config.OracleConfig{
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, discardLogger())
}

func TestChatOracleRoute(t *testing.T) {
	var seen chatRequest
	srv := chatServer(t, func(w http.ResponseWriter, req chatRequest) {
		seen = req
		reply(w, `{"next": "kitchen"}`)
	})
	o := testOracle(srv)

	next, err := o.Route(context.Background(), domain.RouteRequest{
		Supervisor: "root",
		Prompt:     "route the task",
		Messages:   []domain.Message{{Role: domain.RoleUser, Content: "find a recipe"}},
		Candidates: []domain.Candidate{{Name: "kitchen", Description: "recipes"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "kitchen", next)

	require.NotEmpty(t, seen.Messages)
	assert.Equal(t, "test-model", seen.Model)
	assert.Zero(t, seen.Temperature)
	assert.Contains(t, seen.Messages[0].Content, "kitchen: recipes")
	assert.Contains(t, seen.Messages[0].Content, domain.Terminal)
}

func TestChatOracleRouteFencedReply(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		reply(w, "```json\n{\"next\": \"kitchen\"}\n```")
	})
	o := testOracle(srv)

	next, err := o.Route(context.Background(), domain.RouteRequest{
		Candidates: []domain.Candidate{{Name: "kitchen"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "kitchen", next)
}

func TestChatOracleRouteGuidance(t *testing.T) {
	var seen chatRequest
	srv := chatServer(t, func(w http.ResponseWriter, req chatRequest) {
		seen = req
		reply(w, `{"next": "FINISH"}`)
	})
	o := testOracle(srv)

	_, err := o.Route(context.Background(), domain.RouteRequest{
		Guidance: "try the analysis worker instead",
	})
	require.NoError(t, err)
	assert.Contains(t, seen.Messages[0].Content, "try the analysis worker instead")
}

func TestChatOracleRouteUnparseable(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		reply(w, "sure, I'd route this to the kitchen")
	})
	o := testOracle(srv)

	_, err := o.Route(context.Background(), domain.RouteRequest{})
	assert.Error(t, err)
}

func TestChatOracleServerErrorIsTransient(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	o := testOracle(srv)

	_, err := o.Route(context.Background(), domain.RouteRequest{})
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)
}

func TestChatOracleClientErrorIsPermanent(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})
	o := testOracle(srv)

	_, err := o.Route(context.Background(), domain.RouteRequest{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrOracleUnavailable)
}

func TestChatOracleJudge(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, req chatRequest) {
		assert.Contains(t, req.Messages[0].Content, "the original task")
		reply(w, `{"score": 4, "sufficient": false, "critique": "missing detail", "retry": true}`)
	})
	o := testOracle(srv)

	verdict, err := o.Judge(context.Background(), domain.JudgeRequest{
		Task: "the original task", Worker: "w", Output: "an answer",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, verdict.Score)
	assert.False(t, verdict.Sufficient)
	assert.True(t, verdict.Retry)
	assert.Equal(t, "missing detail", verdict.Critique)
}

func TestChatOracleTranscriptRoles(t *testing.T) {
	var seen chatRequest
	srv := chatServer(t, func(w http.ResponseWriter, req chatRequest) {
		seen = req
		reply(w, `{"next": "FINISH"}`)
	})
	o := testOracle(srv)

	_, err := o.Route(context.Background(), domain.RouteRequest{
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "the task"},
			{Role: domain.RoleAssistant, Name: "kitchen", Content: "an answer"},
		},
	})
	require.NoError(t, err)
	require.Len(t, seen.Messages, 3)

	// Worker output is re-presented as user input, prefixed with the node name.
	assert.Equal(t, domain.RoleUser, seen.Messages[2].Role)
	assert.Equal(t, "kitchen: an answer", seen.Messages[2].Content)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"next": "a"}`, `{"next": "a"}`},
		{"```json\n{\"next\": \"a\"}\n```", `{"next": "a"}`},
		{"```\n{\"next\": \"a\"}\n```", `{"next": "a"}`},
		{"  {\"next\": \"a\"}  ", `{"next": "a"}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFences(tt.in))
	}
}
