// Package intent decides which capability should handle a message and
// extracts candidate entities. Classification is tiered: a deterministic
// quick pattern pass first, a follow-up bias for ongoing exchanges second,
// and a generative fallback last.
package intent

import (
	"context"

	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
)

// Capability identifies which domain capability should handle a message.
type Capability string

const (
	// CapabilityContent handles content drafting (posts, articles, copy).
	CapabilityContent Capability = "content"

	// CapabilityCRM handles CRM operations (contacts, deals, companies).
	CapabilityCRM Capability = "crm"

	// CapabilityTracker handles issue tracking (tickets, bugs, tasks).
	CapabilityTracker Capability = "tracker"

	// CapabilityGeneral is the generic fallback for everything else.
	CapabilityGeneral Capability = "general"
)

// Capabilities lists every routable capability.
var Capabilities = []Capability{CapabilityContent, CapabilityCRM, CapabilityTracker, CapabilityGeneral}

// CapabilityFromString converts a string to a Capability, coercing
// anything unrecognized to the generic fallback.
func CapabilityFromString(s string) Capability {
	switch Capability(s) {
	case CapabilityContent:
		return CapabilityContent
	case CapabilityCRM:
		return CapabilityCRM
	case CapabilityTracker:
		return CapabilityTracker
	case CapabilityGeneral:
		return CapabilityGeneral
	default:
		return CapabilityGeneral
	}
}

// Label returns a short human-readable description used in clarification
// prompts.
func (c Capability) Label() string {
	switch c {
	case CapabilityContent:
		return "drafting content"
	case CapabilityCRM:
		return "your CRM"
	case CapabilityTracker:
		return "issue tracking"
	default:
		return "general help"
	}
}

// ExtractedEntity is a candidate entity pulled out of a message. Value is
// the raw text as written (possibly a pronoun); ResolvedID/ResolvedName are
// filled once the entity resolver has matched it against context.
type ExtractedEntity struct {
	Kind         conversation.EntityKind `json:"kind"`
	Value        string                  `json:"value"`
	ResolvedID   string                  `json:"resolved_id,omitempty"`
	ResolvedName string                  `json:"resolved_name,omitempty"`
}

// Resolved reports whether the entity carries a concrete identifier.
func (e ExtractedEntity) Resolved() bool {
	return e.ResolvedID != ""
}

// Result is the outcome of classifying one message.
type Result struct {
	Capability Capability
	Intent     string
	Confidence float64
	Entities   []ExtractedEntity
	// Method records which tier produced the result: "rule", "followup",
	// "llm" or "fallback".
	Method string
}

// Config holds the confidence gate thresholds. The gate itself is applied
// by the orchestrator; the parameters live here with the classifier.
type Config struct {
	// ClarifyThreshold: below this, ask the user to disambiguate.
	ClarifyThreshold float64
	// DirectRouteThreshold: at or above this, dispatch without further
	// gating. Between the two thresholds dispatch still proceeds; the
	// distinction matters only for future extension.
	DirectRouteThreshold float64
}

// DefaultConfig returns the default gate thresholds.
func DefaultConfig() Config {
	return Config{
		ClarifyThreshold:     0.5,
		DirectRouteThreshold: 0.8,
	}
}

// NeedsClarification reports whether the result is too uncertain to act on.
func (c Config) NeedsClarification(result *Result) bool {
	return result.Confidence < c.ClarifyThreshold
}

// ShouldRouteDirectly reports whether the result clears the direct-route bar.
func (c Config) ShouldRouteDirectly(result *Result) bool {
	return result.Confidence >= c.DirectRouteThreshold
}

// Classifier decides which capability should respond to a message, given
// the conversation context accumulated so far.
type Classifier interface {
	Classify(ctx context.Context, input string, conv *conversation.Context) (*Result, error)
}
