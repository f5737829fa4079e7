package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchboardhq/switchboard/plugin/assistant/capability"
	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/intent"
	"github.com/switchboardhq/switchboard/plugin/assistant/llm"
)

type scriptedClient struct {
	response string
	err      error
}

func (c *scriptedClient) Complete(_ context.Context, _ []llm.Message) (string, error) {
	return c.response, c.err
}

type fixture struct {
	orchestrator *Orchestrator
	contexts     conversation.Service
	crm          *capability.ScriptedHandler
	general      *capability.ScriptedHandler
}

func newFixture(t *testing.T, client llm.Client) *fixture {
	t.Helper()

	contexts := conversation.NewService(conversation.NewMockRowStore(), conversation.DefaultConfig())

	registry := capability.NewRegistry()
	crm := &capability.ScriptedHandler{Response: &capability.Response{Text: "You have 3 open deals."}}
	general := &capability.ScriptedHandler{Response: &capability.Response{Text: "Happy to help."}}
	registry.Register(intent.CapabilityCRM, crm)
	registry.Register(intent.CapabilityGeneral, general)

	return &fixture{
		orchestrator: New(contexts, intent.NewService(client, intent.DefaultConfig()), registry, intent.DefaultConfig()),
		contexts:     contexts,
		crm:          crm,
		general:      general,
	}
}

func TestHandle_EndToEnd(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	reply, err := f.orchestrator.Handle(ctx, &Message{
		ChannelID: "C1", UserID: "U1", Text: "show my deals",
	})
	require.NoError(t, err)
	assert.Equal(t, intent.CapabilityCRM, reply.Capability)
	assert.Equal(t, "You have 3 open deals.", reply.Text)
	assert.False(t, reply.Clarification)
	assert.NotEmpty(t, reply.ContextID)

	// Short follow-up rides the active capability, no model needed.
	reply, err = f.orchestrator.Handle(ctx, &Message{
		ChannelID: "C1", UserID: "U1", Text: "and this quarter?",
	})
	require.NoError(t, err)
	assert.Equal(t, intent.CapabilityCRM, reply.Capability)

	conv, err := f.orchestrator.GetContext(ctx, "C1", "")
	require.NoError(t, err)
	require.NotNil(t, conv)
	require.Len(t, conv.Turns, 4)
	assert.Equal(t, conversation.RoleUser, conv.Turns[0].Role)
	assert.Equal(t, conversation.RoleAssistant, conv.Turns[1].Role)
	assert.Equal(t, "crm", conv.Turns[1].Capability)
	assert.Equal(t, "crm", conv.ActiveCapability)

	// The handler saw the history as it stood before each message.
	require.Len(t, f.crm.Requests, 2)
	assert.Empty(t, f.crm.Requests[0].History)
	assert.Len(t, f.crm.Requests[1].History, 2)
}

func TestHandle_Clarification(t *testing.T) {
	// No model configured: ambiguous input lands on the low-confidence
	// fallback and triggers a clarifying question.
	f := newFixture(t, nil)
	ctx := context.Background()

	reply, err := f.orchestrator.Handle(ctx, &Message{
		ChannelID: "C1", UserID: "U1", Text: "can you take care of that thing from before",
	})
	require.NoError(t, err)
	assert.True(t, reply.Clarification)
	assert.Contains(t, reply.Text, "something else")
	assert.Empty(t, f.crm.Requests)
	assert.Empty(t, f.general.Requests)

	// The question is part of the history.
	conv, err := f.orchestrator.GetContext(ctx, "C1", "")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 2)
	assert.Equal(t, reply.Text, conv.Turns[1].Content)
	// Clarifying does not claim the conversation for any capability.
	assert.Empty(t, conv.ActiveCapability)
}

func TestHandle_PronounResolution(t *testing.T) {
	client := &scriptedClient{
		response: `{"capability": "crm", "intent": "draft an email", "confidence": 0.9, "entities": [{"kind": "contact", "value": "her"}]}`,
	}
	f := newFixture(t, client)
	ctx := context.Background()

	// Seed the conversation with a known contact.
	reply, err := f.orchestrator.Handle(ctx, &Message{ChannelID: "C1", UserID: "U1", Text: "show my deals"})
	require.NoError(t, err)
	require.NoError(t, f.contexts.AddEntity(ctx, reply.ContextID, conversation.EntityRef{
		Kind: conversation.EntityKindContact, ID: "c1", Name: "Maria Lopez",
	}))

	_, err = f.orchestrator.Handle(ctx, &Message{
		ChannelID: "C1", UserID: "U1", Text: "prepare a quarterly summary email for maria lopez",
	})
	require.NoError(t, err)

	require.Len(t, f.crm.Requests, 2)
	entities := f.crm.Requests[1].Entities
	require.Len(t, entities, 1)
	assert.Equal(t, "c1", entities[0].ResolvedID)
	assert.Equal(t, "Maria Lopez", entities[0].ResolvedName)
}

func TestHandle_HandlerFailureApologizes(t *testing.T) {
	f := newFixture(t, nil)
	f.crm.Err = errors.New("upstream exploded")
	ctx := context.Background()

	reply, err := f.orchestrator.Handle(ctx, &Message{
		ChannelID: "C1", UserID: "U1", Text: "show my deals",
	})
	require.NoError(t, err)
	assert.Equal(t, apologyText, reply.Text)
	assert.NotContains(t, reply.Text, "upstream")

	// Both the user message and the apology are recorded.
	conv, err := f.orchestrator.GetContext(ctx, "C1", "")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 2)
	assert.Equal(t, apologyText, conv.Turns[1].Content)
}

func TestHandle_EmptyMessage(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.orchestrator.Handle(context.Background(), &Message{ChannelID: "C1", UserID: "U1"})
	assert.Error(t, err)
}

func TestHandle_ConcurrentSameConversation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orchestrator.Handle(ctx, &Message{
				ChannelID: "C1", UserID: "U1", Text: "show my deals",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// 5 exchanges serialized into exactly 10 turns, the history cap.
	conv, err := f.orchestrator.GetContext(ctx, "C1", "")
	require.NoError(t, err)
	assert.Len(t, conv.Turns, 10)
}

func TestKeyedMutex(t *testing.T) {
	locks := newKeyedMutex()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("k")
			counter++
			locks.Unlock("k")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Empty(t, locks.locks, "entries are released when idle")
}
