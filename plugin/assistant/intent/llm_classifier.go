package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/llm"
)

const (
	// fallbackConfidence is the fixed confidence when the generative call
	// fails or its output cannot be parsed. It sits below the clarify
	// threshold so the orchestrator asks rather than guesses.
	fallbackConfidence = 0.3

	// digestTurns is how many recent turns the digest carries.
	digestTurns = 4
	// digestEntitiesPerKind is how many recent entities per kind.
	digestEntitiesPerKind = 3
	// digestTurnRuneLen truncates each digest turn.
	digestTurnRuneLen = 160
)

// classifierInstructions is the fixed instruction set for the generative
// fallback. The capability names must match the Capability constants.
const classifierInstructions = `You route messages for a workspace assistant. Classify the user's message into exactly one capability:

content: drafting posts, articles, emails or any written copy
crm: contacts, deals, companies, pipeline questions and updates
tracker: issues, tickets, bugs, tasks
general: greetings, help, anything that fits nowhere else

Also extract entities the message mentions. Recognized kinds: contact, deal, company. Use the exact words from the message as the value, including pronouns.

Respond with a single JSON object and nothing else:
{"capability": "...", "intent": "<short description>", "confidence": <0..1>, "entities": [{"kind": "contact", "value": "..."}]}`

// GenerativeClassifier is the last classification tier. It builds a compact
// digest of the conversation and asks the text-generation collaborator for
// a structured verdict. Any failure degrades to the generic fallback
// result; this tier never returns an error.
type GenerativeClassifier struct {
	client llm.Client
}

// NewGenerativeClassifier creates the generative fallback tier. A nil
// client is allowed and always yields the fallback result.
func NewGenerativeClassifier(client llm.Client) *GenerativeClassifier {
	return &GenerativeClassifier{client: client}
}

// Classify asks the model to classify the input given the context digest.
func (c *GenerativeClassifier) Classify(ctx context.Context, input string, conv *conversation.Context) *Result {
	if c.client == nil {
		return fallbackResult()
	}

	messages := []llm.Message{
		llm.SystemPrompt(classifierInstructions),
	}
	if digest := buildDigest(conv); digest != "" {
		messages = append(messages, llm.SystemPrompt("Conversation so far:\n"+digest))
	}
	messages = append(messages, llm.UserMessage(input))

	response, err := c.client.Complete(ctx, messages)
	if err != nil {
		slog.Warn("generative classification failed", "error", err)
		return fallbackResult()
	}

	result, err := parseClassification(response)
	if err != nil {
		slog.Warn("failed to parse classification output",
			"error", err, "output", truncate(response, 200))
		return fallbackResult()
	}

	return result
}

// rawClassification is the JSON shape expected from the model.
type rawClassification struct {
	Capability string  `json:"capability"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Entities   []struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	} `json:"entities"`
}

// parseClassification tolerantly parses model output: the first
// brace-delimited JSON object found in the text is decoded, the capability
// string is coerced to a known value, and entities are filtered to those
// with a recognized kind and a non-empty value.
func parseClassification(response string) (*Result, error) {
	blob, ok := extractJSONObject(response)
	if !ok {
		return nil, fmt.Errorf("no JSON object in output")
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	result := &Result{
		Capability: CapabilityFromString(strings.ToLower(strings.TrimSpace(raw.Capability))),
		Intent:     strings.TrimSpace(raw.Intent),
		Confidence: clamp01(raw.Confidence),
		Method:     "llm",
	}

	for _, e := range raw.Entities {
		kind := conversation.EntityKind(strings.ToLower(strings.TrimSpace(e.Kind)))
		value := strings.TrimSpace(e.Value)
		if !conversation.KnownEntityKind(kind) || value == "" {
			continue
		}
		result.Entities = append(result.Entities, ExtractedEntity{Kind: kind, Value: value})
	}

	return result, nil
}

// extractJSONObject returns the first balanced brace-delimited object in s.
// Braces inside JSON strings are ignored.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// buildDigest renders the compact context summary sent to the model:
// active capability, the most recent entities per kind, and the most
// recent turns, each truncated.
func buildDigest(conv *conversation.Context) string {
	if conv == nil {
		return ""
	}

	var b strings.Builder
	if conv.ActiveCapability != "" {
		fmt.Fprintf(&b, "Active capability: %s\n", conv.ActiveCapability)
	}

	for _, kind := range conversation.EntityKinds {
		entities := conv.RecentEntities(kind, digestEntitiesPerKind)
		if len(entities) == 0 {
			continue
		}
		names := make([]string, 0, len(entities))
		for _, e := range entities {
			names = append(names, e.Name)
		}
		fmt.Fprintf(&b, "Recent %s mentions: %s\n", kind, strings.Join(names, ", "))
	}

	turns := conv.RecentTurns(digestTurns)
	if len(turns) > 0 {
		b.WriteString("Recent turns:\n")
		for _, turn := range turns {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, truncate(turn.Content, digestTurnRuneLen))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func fallbackResult() *Result {
	return &Result{
		Capability: CapabilityGeneral,
		Intent:     "unclear request",
		Confidence: fallbackConfidence,
		Method:     "fallback",
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// truncate truncates a string to maxLen runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
