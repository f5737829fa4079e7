package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/intent"
	"github.com/switchboardhq/switchboard/plugin/assistant/llm"
)

type fakeClient struct {
	response string
	err      error
	messages []llm.Message
}

func (c *fakeClient) Complete(_ context.Context, messages []llm.Message) (string, error) {
	c.messages = messages
	return c.response, c.err
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	general := &ScriptedHandler{}
	crm := &ScriptedHandler{}
	registry.Register(intent.CapabilityGeneral, general)
	registry.Register(intent.CapabilityCRM, crm)

	handler, err := registry.Get(intent.CapabilityCRM)
	require.NoError(t, err)
	assert.Same(t, Handler(crm), handler)

	// Unregistered capability falls back to general.
	handler, err = registry.Get(intent.CapabilityTracker)
	require.NoError(t, err)
	assert.Same(t, Handler(general), handler)

	assert.Equal(t, []intent.Capability{intent.CapabilityCRM, intent.CapabilityGeneral}, registry.Capabilities())

	_, err = NewRegistry().Get(intent.CapabilityContent)
	assert.Error(t, err)
}

func TestLLMHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplaysHistoryAndHints", func(t *testing.T) {
		client := &fakeClient{response: "  Updated the close date.  "}
		handler := NewCRMHandler(client)

		resp, err := handler.Handle(ctx, &Request{
			Message: "push it out a week",
			History: []conversation.Turn{
				{Role: conversation.RoleUser, Content: "tell me about the Acme deal"},
				{Role: conversation.RoleAssistant, Content: "It closes next Friday."},
			},
			Entities: []intent.ExtractedEntity{
				{Kind: conversation.EntityKindDeal, Value: "it", ResolvedID: "d1", ResolvedName: "Acme renewal"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Updated the close date.", resp.Text)

		// system + 2 history turns + user message
		require.Len(t, client.messages, 4)
		assert.Contains(t, client.messages[3].Content, "push it out a week")
		assert.Contains(t, client.messages[3].Content, "Acme renewal")

		require.Len(t, resp.Entities, 1)
		assert.Equal(t, "d1", resp.Entities[0].ID)
	})

	t.Run("CompletionError", func(t *testing.T) {
		handler := NewContentHandler(&fakeClient{err: errors.New("rate limited")})
		_, err := handler.Handle(ctx, &Request{Message: "draft a tweet"})
		assert.Error(t, err)
	})

	t.Run("GeneralWorksWithoutModel", func(t *testing.T) {
		handler := NewGeneralHandler(nil)
		resp, err := handler.Handle(ctx, &Request{Message: "hi"})
		require.NoError(t, err)
		assert.Contains(t, resp.Text, "CRM")
	})

	t.Run("OthersRequireModel", func(t *testing.T) {
		handler := NewTrackerHandler(nil)
		_, err := handler.Handle(ctx, &Request{Message: "file a bug"})
		assert.Error(t, err)
	})
}
