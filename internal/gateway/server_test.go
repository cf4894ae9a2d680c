package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/tripdesk/internal/checkpoint"
	"github.com/soyeahso/tripdesk/internal/config"
	"github.com/soyeahso/tripdesk/internal/domain"
	"github.com/soyeahso/tripdesk/internal/intent"
	"github.com/soyeahso/tripdesk/internal/logging"
	"github.com/soyeahso/tripdesk/internal/orchestrator"
	"github.com/soyeahso/tripdesk/internal/workflow"
)

const testToken = "test-token-123"

// echoExec returns a canned string for every tool call.
type echoExec struct{}

func (echoExec) Execute(_ context.Context, name string, _ json.RawMessage, _ domain.UserContext) (string, error) {
	return "result of " + name, nil
}

func testServer(t *testing.T, producer intent.Producer) (*Server, *httptest.Server) {
	t.Helper()

	cfg := config.Defaults().Gateway
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = testToken

	log := logging.New(nil, "silent")
	hub := NewHub(log)
	orch := orchestrator.New(workflow.Default(), producer, echoExec{}, checkpoint.NewMemoryStore(), log,
		orchestrator.WithEvents(hub))

	srv := New(cfg, orch, hub, log)
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(func() {
		ts.Close()
		hub.Close()
	})
	return srv, ts
}

func authedRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := testServer(t, &intent.MockProducer{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
}

func TestAuthRequired(t *testing.T) {
	_, ts := testServer(t, &intent.MockProducer{})

	body := strings.NewReader(`{"text":"hello"}`)
	resp, err := http.Post(ts.URL+"/v1/threads/t-1/messages", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthWrongToken(t *testing.T) {
	_, ts := testServer(t, &intent.MockProducer{})

	req := authedRequest(t, "POST", ts.URL+"/v1/threads/t-1/messages", messageRequest{Text: "hello"})
	req.Header.Set("Authorization", "Bearer wrong")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMessageTurn(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Text: "Hello! How can I help with your trip?"},
	}}
	_, ts := testServer(t, producer)

	req := authedRequest(t, "POST", ts.URL+"/v1/threads/t-1/messages",
		messageRequest{PassengerID: "3442 587242", Text: "hi"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res orchestrator.TurnResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "t-1", res.ThreadID)
	assert.Equal(t, "Hello! How can I help with your trip?", res.Reply)
	assert.False(t, res.Suspended)
}

func TestMessageEmptyText(t *testing.T) {
	_, ts := testServer(t, &intent.MockProducer{})

	req := authedRequest(t, "POST", ts.URL+"/v1/threads/t-1/messages", messageRequest{})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMessageInvalidJSON(t *testing.T) {
	_, ts := testServer(t, &intent.MockProducer{})

	req, err := http.NewRequest("POST", ts.URL+"/v1/threads/t-1/messages", strings.NewReader("{not json"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProducerFailureReturns502(t *testing.T) {
	producer := &intent.MockProducer{
		ProduceFunc: func(context.Context, string, domain.UserContext, []domain.Message) (*intent.Reply, error) {
			return nil, fmt.Errorf("%w: upstream down", intent.ErrProducer)
		},
	}
	_, ts := testServer(t, producer)

	req := authedRequest(t, "POST", ts.URL+"/v1/threads/t-1/messages", messageRequest{Text: "hi"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	// The body still carries the apology turn result.
	var res orchestrator.TurnResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.NotEmpty(t, res.Reply)
}

func TestApprovalFlow(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "cancel_ticket", Arguments: json.RawMessage(`{}`)}}},
		{Text: "Your ticket has been cancelled."},
	}}
	_, ts := testServer(t, producer)

	req := authedRequest(t, "POST", ts.URL+"/v1/threads/t-2/messages", messageRequest{Text: "cancel my ticket"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res orchestrator.TurnResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.True(t, res.Suspended)
	require.NotNil(t, res.Pending)

	// Approve it.
	req = authedRequest(t, "POST", ts.URL+"/v1/threads/t-2/approval", approvalRequest{Decision: "approve"})
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()

	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var res2 orchestrator.TurnResult
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&res2))
	assert.False(t, res2.Suspended)
	assert.Equal(t, "Your ticket has been cancelled.", res2.Reply)
}

func TestApprovalWithoutPending(t *testing.T) {
	_, ts := testServer(t, &intent.MockProducer{})

	req := authedRequest(t, "POST", ts.URL+"/v1/threads/t-3/approval", approvalRequest{Decision: "approve"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestApprovalBadDecision(t *testing.T) {
	_, ts := testServer(t, &intent.MockProducer{})

	req := authedRequest(t, "POST", ts.URL+"/v1/threads/t-3/approval", approvalRequest{Decision: "maybe"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestThreadStatus(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{{Text: "hello"}}}
	_, ts := testServer(t, producer)

	req := authedRequest(t, "POST", ts.URL+"/v1/threads/t-4/messages", messageRequest{Text: "hi"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = authedRequest(t, "GET", ts.URL+"/v1/threads/t-4", nil)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()

	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var status threadStatus
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&status))
	assert.Equal(t, "t-4", status.ThreadID)
	assert.Equal(t, "primary", status.ActiveAssistant)
	assert.False(t, status.Suspended)
	assert.Equal(t, 2, status.Messages) // user + assistant
}

func TestThreadStatusNotFound(t *testing.T) {
	_, ts := testServer(t, &intent.MockProducer{})

	req := authedRequest(t, "GET", ts.URL+"/v1/threads/missing", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventStream(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{{Text: "streamed reply"}}}
	_, ts := testServer(t, producer)

	// Header auth is awkward for browser WebSocket clients, so the token
	// rides the query string.
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/threads/t-5/events?token=" + testToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	req := authedRequest(t, "POST", ts.URL+"/v1/threads/t-5/messages", messageRequest{Text: "hi"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// First event is the user message, second the assistant reply.
	var ev orchestrator.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, orchestrator.EventMessage, ev.Type)
	assert.Equal(t, "t-5", ev.ThreadID)
	require.NotNil(t, ev.Message)
	assert.Equal(t, domain.RoleUser, ev.Message.Role)

	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, orchestrator.EventMessage, ev.Type)
	require.NotNil(t, ev.Message)
	assert.Equal(t, domain.RoleAssistant, ev.Message.Role)
	assert.Equal(t, "streamed reply", ev.Message.Content)
}

func TestEventStreamRejectsBadToken(t *testing.T) {
	_, ts := testServer(t, &intent.MockProducer{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/threads/t-6/events?token=wrong"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestBindHost(t *testing.T) {
	tests := []struct {
		bind    string
		host    string
		want    string
		wantErr bool
	}{
		{"", "", "127.0.0.1", false},
		{"loopback", "", "127.0.0.1", false},
		{"lan", "", "0.0.0.0", false},
		{"custom", "10.0.0.5", "10.0.0.5", false},
		{"custom", "", "", true},
		{"bogus", "", "", true},
	}

	for _, tt := range tests {
		s := &Server{cfg: config.GatewayConfig{Bind: tt.bind, Host: tt.host}}
		got, err := s.bindHost()
		if tt.wantErr {
			assert.Error(t, err, tt.bind)
		} else {
			require.NoError(t, err, tt.bind)
			assert.Equal(t, tt.want, got)
		}
	}
}
