package intent

import (
	"regexp"
	"strings"
)

// ruleConfidence is the fixed confidence for a quick pattern hit. The quick
// pass is a latency/cost shortcut for obvious phrasings, not the source of
// truth, so it reports one high value rather than pretending to grade.
const ruleConfidence = 0.95

// rule maps a set of phrase patterns to a capability. Rules are evaluated
// in order; the first match wins.
type rule struct {
	capability Capability
	intent     string
	patterns   []*regexp.Regexp
}

// RuleMatcher implements the deterministic quick pattern pass.
type RuleMatcher struct {
	rules []rule
}

// NewRuleMatcher creates a rule matcher with the predefined phrasing rules.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{
		rules: []rule{
			{
				capability: CapabilityContent,
				intent:     "draft content",
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\b(write|draft|compose)\b`),
					regexp.MustCompile(`(?i)\b(blog post|linkedin|tweet|newsletter|article)\b`),
					regexp.MustCompile(`(?i)\bcopy for\b`),
				},
			},
			{
				capability: CapabilityCRM,
				intent:     "crm operation",
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\bdeals?\b`),
					regexp.MustCompile(`(?i)\bcontacts?\b`),
					regexp.MustCompile(`(?i)\b(pipeline|crm)\b`),
					regexp.MustCompile(`(?i)\bleads?\b`),
					regexp.MustCompile(`(?i)\bopportunit(y|ies)\b`),
					regexp.MustCompile(`(?i)\bfollow up with\b`),
				},
			},
			{
				capability: CapabilityTracker,
				intent:     "issue tracking",
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)\bissues?\b`),
					regexp.MustCompile(`(?i)\btickets?\b`),
					regexp.MustCompile(`(?i)\bbugs?\b`),
					regexp.MustCompile(`(?i)\bbacklog\b`),
				},
			},
			{
				capability: CapabilityGeneral,
				intent:     "greeting or help",
				patterns: []*regexp.Regexp{
					regexp.MustCompile(`(?i)^\s*(hi|hello|hey|good (morning|afternoon|evening))\b`),
					regexp.MustCompile(`(?i)\bwhat can you do\b`),
					regexp.MustCompile(`(?i)^\s*help\b`),
				},
			},
		},
	}
}

// Match attempts to classify the input with rules alone.
// Returns: result, matched (true if any rule matched).
func (m *RuleMatcher) Match(input string) (*Result, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, false
	}

	for _, r := range m.rules {
		for _, pattern := range r.patterns {
			if pattern.MatchString(trimmed) {
				return &Result{
					Capability: r.capability,
					Intent:     r.intent,
					Confidence: ruleConfidence,
					Method:     "rule",
				}, true
			}
		}
	}

	return nil, false
}
