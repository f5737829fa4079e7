package intent

import (
	"context"
	"log/slog"
	"time"

	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/llm"
)

// Service implements the tiered Classifier.
// Tier 1: quick pattern pass (0ms) - obvious phrasings.
// Tier 2: follow-up bias (0ms) - short replies in an ongoing exchange.
// Tier 3: generative fallback (~hundreds of ms) - everything else.
type Service struct {
	rules      *RuleMatcher
	followUp   *FollowUpMatcher
	generative *GenerativeClassifier
	config     Config
}

// NewService creates a classifier. client may be nil, in which case the
// generative tier always degrades to the fixed fallback result.
func NewService(client llm.Client, config Config) *Service {
	if config.ClarifyThreshold <= 0 {
		config.ClarifyThreshold = DefaultConfig().ClarifyThreshold
	}
	if config.DirectRouteThreshold <= 0 {
		config.DirectRouteThreshold = DefaultConfig().DirectRouteThreshold
	}
	return &Service{
		rules:      NewRuleMatcher(),
		followUp:   NewFollowUpMatcher(),
		generative: NewGenerativeClassifier(client),
		config:     config,
	}
}

// Config returns the confidence gate parameters.
func (s *Service) Config() Config {
	return s.config
}

// Classify runs the three tiers in order and returns the first verdict.
// It never returns an error: generative failures are downgraded to a
// low-confidence generic result.
func (s *Service) Classify(ctx context.Context, input string, conv *conversation.Context) (*Result, error) {
	start := time.Now()

	if result, matched := s.rules.Match(input); matched {
		slog.Debug("intent classified by rules",
			"input", truncate(input, 50),
			"capability", result.Capability,
			"confidence", result.Confidence,
			"latency_ms", time.Since(start).Milliseconds())
		return result, nil
	}

	activeCapability := ""
	if conv != nil {
		activeCapability = conv.ActiveCapability
	}
	if result, matched := s.followUp.Match(input, activeCapability); matched {
		slog.Debug("intent classified as follow-up",
			"input", truncate(input, 50),
			"capability", result.Capability,
			"latency_ms", time.Since(start).Milliseconds())
		return result, nil
	}

	result := s.generative.Classify(ctx, input, conv)
	slog.Debug("intent classified by model",
		"input", truncate(input, 50),
		"capability", result.Capability,
		"confidence", result.Confidence,
		"method", result.Method,
		"latency_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Ensure Service implements Classifier
var _ Classifier = (*Service)(nil)
