package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchboardhq/switchboard/internal/profile"
	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/orchestrator"
)

type fakeAssistant struct {
	reply   *orchestrator.Reply
	conv    *conversation.Context
	removed int64
	err     error

	lastMessage *orchestrator.Message
}

func (f *fakeAssistant) Handle(_ context.Context, msg *orchestrator.Message) (*orchestrator.Reply, error) {
	f.lastMessage = msg
	return f.reply, f.err
}

func (f *fakeAssistant) GetContext(_ context.Context, _, _ string) (*conversation.Context, error) {
	return f.conv, f.err
}

func (f *fakeAssistant) Cleanup(_ context.Context) (int64, error) {
	return f.removed, f.err
}

func newTestServer(assistant AssistantService) *Server {
	return NewServer(&profile.Profile{Mode: "dev", Addr: "127.0.0.1", Port: 0}, assistant)
}

func TestPostMessage(t *testing.T) {
	assistant := &fakeAssistant{
		reply: &orchestrator.Reply{ContextID: "ctx1", Text: "done", Capability: "crm", Confidence: 0.95},
	}
	s := newTestServer(assistant)

	body := `{"channelId": "C1", "userId": "U1", "text": "show my deals"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var reply orchestrator.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "done", reply.Text)
	assert.Equal(t, "C1", assistant.lastMessage.ChannelID)
	assert.Equal(t, "show my deals", assistant.lastMessage.Text)
}

func TestPostMessage_Validation(t *testing.T) {
	s := newTestServer(&fakeAssistant{})

	tests := []struct {
		name string
		body string
	}{
		{"Missing text", `{"channelId": "C1", "userId": "U1"}`},
		{"Missing channel", `{"userId": "U1", "text": "hi"}`},
		{"Not JSON", `{{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			s.Echo().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetContext(t *testing.T) {
	assistant := &fakeAssistant{
		conv: &conversation.Context{ID: "ctx1", ChannelID: "C1"},
	}
	s := newTestServer(assistant)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contexts?channel=C1", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var conv conversation.Context
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, "ctx1", conv.ID)

	// Missing channel param.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/contexts", nil)
	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown conversation.
	assistant.conv = nil
	req = httptest.NewRequest(http.MethodGet, "/api/v1/contexts?channel=C9", nil)
	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostCleanup(t *testing.T) {
	s := newTestServer(&fakeAssistant{removed: 3})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cleanup", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed": 3}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeAssistant{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
