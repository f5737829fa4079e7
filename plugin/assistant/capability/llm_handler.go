package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/intent"
	"github.com/switchboardhq/switchboard/plugin/assistant/llm"
)

const contentPrompt = `You are a content drafting assistant. Write the piece the user asks for
(posts, emails, articles, tweets) in a clear, direct voice. Return only the
draft, no preamble.`

const crmPrompt = `You are a CRM assistant. Help the user work with deals, contacts and
companies: look things up, summarize pipeline state, and draft updates.
When the request references a resolved entity, work with that entity.`

const trackerPrompt = `You are an issue-tracking assistant. Help the user file, triage and
summarize issues and tickets. Keep replies short and actionable.`

const generalPrompt = `You are a helpful workplace assistant. Answer briefly. If the request
fits content drafting, CRM work, or issue tracking, say so and ask the user
to elaborate.`

// historyTurns caps how much conversation history is replayed to the model.
const historyTurns = 6

// LLMHandler serves one capability by delegating the turn to the model with
// a capability-specific system prompt.
type LLMHandler struct {
	client       llm.Client
	capability   intent.Capability
	systemPrompt string
}

var _ Handler = (*LLMHandler)(nil)

func NewContentHandler(client llm.Client) *LLMHandler {
	return &LLMHandler{client: client, capability: intent.CapabilityContent, systemPrompt: contentPrompt}
}

func NewCRMHandler(client llm.Client) *LLMHandler {
	return &LLMHandler{client: client, capability: intent.CapabilityCRM, systemPrompt: crmPrompt}
}

func NewTrackerHandler(client llm.Client) *LLMHandler {
	return &LLMHandler{client: client, capability: intent.CapabilityTracker, systemPrompt: trackerPrompt}
}

func NewGeneralHandler(client llm.Client) *LLMHandler {
	return &LLMHandler{client: client, capability: intent.CapabilityGeneral, systemPrompt: generalPrompt}
}

func (h *LLMHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if h.client == nil {
		// The general handler stays useful without a model; the others
		// cannot do their work.
		if h.capability == intent.CapabilityGeneral {
			return &Response{Text: helpText()}, nil
		}
		return nil, errors.Errorf("capability %q requires a configured model", h.capability)
	}

	messages := make([]llm.Message, 0, len(req.History)+2)
	messages = append(messages, llm.SystemPrompt(h.systemPrompt))

	history := req.History
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	for _, turn := range history {
		switch turn.Role {
		case conversation.RoleAssistant:
			messages = append(messages, llm.AssistantMessage(turn.Content))
		default:
			messages = append(messages, llm.UserMessage(turn.Content))
		}
	}
	messages = append(messages, llm.UserMessage(h.buildUserMessage(req)))

	text, err := h.client.Complete(ctx, messages)
	if err != nil {
		return nil, errors.Wrapf(err, "capability %q completion failed", h.capability)
	}
	return &Response{
		Text:     strings.TrimSpace(text),
		Entities: touchedEntities(req.Entities),
	}, nil
}

// buildUserMessage appends resolved-entity hints so the model knows which
// concrete records a pronoun referred to.
func (h *LLMHandler) buildUserMessage(req *Request) string {
	var hints []string
	for _, entity := range req.Entities {
		if entity.Resolved() {
			hints = append(hints, fmt.Sprintf("%q refers to %s %q (id %s)",
				entity.Value, entity.Kind, entity.ResolvedName, entity.ResolvedID))
		}
	}
	if len(hints) == 0 {
		return req.Message
	}
	return req.Message + "\n\n(" + strings.Join(hints, "; ") + ")"
}

// touchedEntities converts the resolved extractions into refs worth
// remembering on the conversation.
func touchedEntities(entities []intent.ExtractedEntity) []conversation.EntityRef {
	var refs []conversation.EntityRef
	for _, entity := range entities {
		if !entity.Resolved() {
			continue
		}
		refs = append(refs, conversation.EntityRef{
			Kind: entity.Kind,
			ID:   entity.ResolvedID,
			Name: entity.ResolvedName,
		})
	}
	return refs
}

func helpText() string {
	return "I can help with drafting content, your CRM, and issue tracking. " +
		"Tell me what you need, for example: \"write a LinkedIn post about our launch\" " +
		"or \"show my deals\"."
}
