// Package orchestrator runs the per-message control loop: load context,
// classify, resolve, dispatch, and record the exchange.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/switchboardhq/switchboard/plugin/assistant/capability"
	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/intent"
	"github.com/switchboardhq/switchboard/plugin/assistant/resolver"
)

// apologyText is the fixed user-facing reply when a turn fails after the
// user's message has been recorded. The cause is logged, never shown.
const apologyText = "Sorry, something went wrong handling that. Please try again."

// Message is one inbound user message.
type Message struct {
	ChannelID string
	ThreadID  string
	UserID    string
	Text      string
}

// Reply is the orchestrator's answer for one message.
type Reply struct {
	ContextID     string            `json:"contextId"`
	Text          string            `json:"text"`
	Capability    intent.Capability `json:"capability"`
	Intent        string            `json:"intent,omitempty"`
	Confidence    float64           `json:"confidence"`
	Clarification bool              `json:"clarification,omitempty"`
}

// Orchestrator wires the classifier, resolver and capability registry over
// the conversation store.
type Orchestrator struct {
	contexts   conversation.Service
	classifier intent.Classifier
	resolver   *resolver.Resolver
	registry   *capability.Registry
	config     intent.Config
	locks      *keyedMutex
}

func New(contexts conversation.Service, classifier intent.Classifier, registry *capability.Registry, config intent.Config) *Orchestrator {
	return &Orchestrator{
		contexts:   contexts,
		classifier: classifier,
		resolver:   resolver.New(),
		registry:   registry,
		config:     config,
		locks:      newKeyedMutex(),
	}
}

// Handle processes one message end to end. Messages for the same
// conversation are serialized; different conversations proceed in parallel.
//
// An error return means the message could not be accepted at all (for
// example the context row could not be loaded). Once the user's turn is
// recorded, failures degrade to an apology reply instead of an error.
func (o *Orchestrator) Handle(ctx context.Context, msg *Message) (*Reply, error) {
	if msg.Text == "" {
		return nil, errors.New("empty message")
	}

	key := msg.ChannelID + "\x00" + msg.ThreadID
	o.locks.Lock(key)
	defer o.locks.Unlock(key)

	start := time.Now()

	conv, err := o.contexts.GetOrCreate(ctx, msg.ChannelID, msg.ThreadID, msg.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load conversation context")
	}

	// History for the handler is captured before this message is appended;
	// the message itself travels separately.
	history := conv.RecentTurns(0)

	if err := o.contexts.AddTurn(ctx, conv.ID, conversation.Turn{
		Role:    conversation.RoleUser,
		Content: msg.Text,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to record user turn")
	}

	result, err := o.classifier.Classify(ctx, msg.Text, conv)
	if err != nil {
		// The tiered classifier degrades internally; an error here is a
		// programming bug, but the user still gets the apology path.
		return o.apologize(ctx, conv, errors.Wrap(err, "classification failed")), nil
	}

	if o.config.NeedsClarification(result) {
		return o.clarify(ctx, conv, result), nil
	}

	result.Entities = o.resolver.Resolve(conv, result.Entities)

	handler, err := o.registry.Get(result.Capability)
	if err != nil {
		return o.apologize(ctx, conv, err), nil
	}

	resp, err := handler.Handle(ctx, &capability.Request{
		Message:  msg.Text,
		Intent:   result.Intent,
		History:  history,
		Entities: result.Entities,
	})
	if err != nil {
		return o.apologize(ctx, conv, errors.Wrapf(err, "capability %q failed", result.Capability)), nil
	}

	o.record(ctx, conv, result, resp)

	slog.Debug("message handled",
		slog.String("context_id", conv.ID),
		slog.String("capability", string(result.Capability)),
		slog.Float64("confidence", result.Confidence),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()))

	return &Reply{
		ContextID:  conv.ID,
		Text:       resp.Text,
		Capability: result.Capability,
		Intent:     result.Intent,
		Confidence: result.Confidence,
	}, nil
}

// record persists the assistant turn and the bookkeeping around it. Failures
// here are logged, not surfaced: the user already has their answer.
func (o *Orchestrator) record(ctx context.Context, conv *conversation.Context, result *intent.Result, resp *capability.Response) {
	if err := o.contexts.AddTurn(ctx, conv.ID, conversation.Turn{
		Role:       conversation.RoleAssistant,
		Content:    resp.Text,
		Capability: string(result.Capability),
	}); err != nil {
		slog.Error("failed to record assistant turn", slog.String("context_id", conv.ID), slog.Any("err", err))
	}
	if err := o.contexts.SetActiveCapability(ctx, conv.ID, string(result.Capability)); err != nil {
		slog.Error("failed to set active capability", slog.String("context_id", conv.ID), slog.Any("err", err))
	}
	for _, ref := range resp.Entities {
		if err := o.contexts.AddEntity(ctx, conv.ID, ref); err != nil {
			slog.Error("failed to record entity", slog.String("context_id", conv.ID), slog.Any("err", err))
		}
	}
	for _, entity := range result.Entities {
		if !entity.Resolved() {
			continue
		}
		if err := o.contexts.AddEntity(ctx, conv.ID, conversation.EntityRef{
			Kind: entity.Kind,
			ID:   entity.ResolvedID,
			Name: entity.ResolvedName,
		}); err != nil {
			slog.Error("failed to record entity", slog.String("context_id", conv.ID), slog.Any("err", err))
		}
	}
	if err := o.contexts.TouchActivity(ctx, conv.ID, conv.IsThreaded()); err != nil {
		slog.Error("failed to touch activity", slog.String("context_id", conv.ID), slog.Any("err", err))
	}
}

// clarify answers a low-confidence classification with a question instead of
// a dispatch. The question is recorded as an assistant turn so a follow-up
// answer lands with full history.
func (o *Orchestrator) clarify(ctx context.Context, conv *conversation.Context, result *intent.Result) *Reply {
	text := fmt.Sprintf("I'm not sure what you need. Did you mean %s, or something else?", result.Capability.Label())

	if err := o.contexts.AddTurn(ctx, conv.ID, conversation.Turn{
		Role:    conversation.RoleAssistant,
		Content: text,
	}); err != nil {
		slog.Error("failed to record clarification turn", slog.String("context_id", conv.ID), slog.Any("err", err))
	}
	if err := o.contexts.TouchActivity(ctx, conv.ID, conv.IsThreaded()); err != nil {
		slog.Error("failed to touch activity", slog.String("context_id", conv.ID), slog.Any("err", err))
	}

	return &Reply{
		ContextID:     conv.ID,
		Text:          text,
		Capability:    result.Capability,
		Intent:        result.Intent,
		Confidence:    result.Confidence,
		Clarification: true,
	}
}

// apologize records the failure as a fixed apology turn. Internal detail
// stays in the log.
func (o *Orchestrator) apologize(ctx context.Context, conv *conversation.Context, cause error) *Reply {
	slog.Error("turn failed", slog.String("context_id", conv.ID), slog.Any("err", cause))

	if err := o.contexts.AddTurn(ctx, conv.ID, conversation.Turn{
		Role:    conversation.RoleAssistant,
		Content: apologyText,
	}); err != nil {
		slog.Error("failed to record apology turn", slog.String("context_id", conv.ID), slog.Any("err", err))
	}

	return &Reply{
		ContextID:  conv.ID,
		Text:       apologyText,
		Capability: intent.CapabilityGeneral,
	}
}

// GetContext exposes read-only context lookup for the API surface.
func (o *Orchestrator) GetContext(ctx context.Context, channelID, threadID string) (*conversation.Context, error) {
	return o.contexts.Get(ctx, channelID, threadID)
}

// Cleanup removes expired non-threaded contexts and reports how many.
func (o *Orchestrator) Cleanup(ctx context.Context) (int64, error) {
	return o.contexts.CleanupExpired(ctx)
}
