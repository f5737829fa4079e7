package intent

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// followUpConfidence is the fixed confidence for continuation hits.
	followUpConfidence = 0.85

	// shortMessageRuneLen is the length below which a message in an
	// ongoing exchange is presumed to be a continuation.
	shortMessageRuneLen = 20
)

// continuationWords are single tokens that signal the user is carrying on
// the current exchange: acknowledgements, connectives and bare pronouns.
var continuationWords = map[string]bool{
	"ok": true, "okay": true, "yes": true, "yep": true, "yeah": true,
	"sure": true, "thanks": true, "and": true, "also": true, "but": true,
	"it": true, "its": true, "that": true, "this": true, "them": true,
	"they": true, "he": true, "she": true, "him": true, "her": true, "his": true,
}

// continuationPhrases are multi-word markers checked by substring.
var continuationPhrases = []string{
	"what about", "how about", "sounds good", "go ahead", "do it",
	"one more", "same for",
}

// FollowUpMatcher implements the follow-up bias: short replies in an
// exchange with an active capability are overwhelmingly continuations, and
// re-deriving that with the generative model every time is wasteful and
// sometimes wrong.
type FollowUpMatcher struct{}

// NewFollowUpMatcher creates a follow-up matcher.
func NewFollowUpMatcher() *FollowUpMatcher {
	return &FollowUpMatcher{}
}

// Match classifies the input as a continuation of the active capability.
// Returns nil, false when there is no active capability or the message
// doesn't look like a continuation.
func (m *FollowUpMatcher) Match(input, activeCapability string) (*Result, bool) {
	if activeCapability == "" {
		return nil, false
	}

	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "" {
		return nil, false
	}

	if !m.looksLikeContinuation(lower) {
		return nil, false
	}

	capability := CapabilityFromString(activeCapability)
	return &Result{
		Capability: capability,
		Intent:     fmt.Sprintf("continuation of %s", capability),
		Confidence: followUpConfidence,
		Method:     "followup",
	}, true
}

func (m *FollowUpMatcher) looksLikeContinuation(lower string) bool {
	if utf8.RuneCountInString(lower) < shortMessageRuneLen {
		return true
	}

	for _, phrase := range continuationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '\''
	}) {
		if continuationWords[word] {
			return true
		}
	}

	return false
}
