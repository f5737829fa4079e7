package capability

import (
	"context"

	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
)

// ScriptedHandler is a test handler that returns a fixed response or error
// and records the requests it received.
type ScriptedHandler struct {
	Response *Response
	Err      error
	Requests []*Request
}

var _ Handler = (*ScriptedHandler)(nil)

func (h *ScriptedHandler) Handle(_ context.Context, req *Request) (*Response, error) {
	h.Requests = append(h.Requests, req)
	if h.Err != nil {
		return nil, h.Err
	}
	if h.Response != nil {
		return h.Response, nil
	}
	return &Response{Text: "ok"}, nil
}

// WithEntities is a convenience for scripting a response that records refs.
func (h *ScriptedHandler) WithEntities(text string, refs ...conversation.EntityRef) *ScriptedHandler {
	h.Response = &Response{Text: text, Entities: refs}
	return h
}
