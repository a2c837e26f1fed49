package perplexity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"liner/internal/logging"
	"liner/internal/research"
	"liner/internal/services"
)

const (
	verifyTemperature = 0.1
	verifyMaxTokens   = 512
)

// Researcher implements research.Researcher on top of Client.
type Researcher struct {
	client *Client
	logger *slog.Logger
}

// NewResearcher wraps a client for use by the pipeline.
func NewResearcher(client *Client, logger *slog.Logger) *Researcher {
	return &Researcher{
		client: client,
		logger: logging.NewComponentLogger(logger, "perplexity"),
	}
}

// Research runs a full web-research pass for the subject and parses the
// structured response. A response without a biography is a provider failure,
// not an empty result.
func (r *Researcher) Research(ctx context.Context, subject research.Subject) (*research.Result, error) {
	r.logger.Info("researching artist", logging.String(logging.FieldArtist, subject.Name))
	content, err := r.client.chatJSON(ctx, researchSystemPrompt, buildResearchPrompt(subject),
		r.client.temperature, r.client.maxTokens*2)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "perplexity", "research", "research request failed", err)
	}
	var result research.Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, services.Wrap(services.ErrProvider, "perplexity", "research",
			fmt.Sprintf("parse research response for %s", subject.Name), err)
	}
	result.Normalize()
	if result.Biography == "" {
		return nil, services.Wrap(services.ErrValidation, "perplexity", "research",
			fmt.Sprintf("no biography in research response for %s", subject.Name), nil)
	}
	r.logger.Info("research complete",
		logging.String(logging.FieldArtist, subject.Name),
		logging.Int("biography_chars", len(result.Biography)),
		logging.Int("connections", result.Connections.Total()))
	return &result, nil
}

// VerifyBiography asks the provider whether the biography matches the
// subject. Verification failures degrade to an accepting result with low
// confidence so a flaky provider cannot quarantine healthy cards.
func (r *Researcher) VerifyBiography(ctx context.Context, subject research.Subject, biography string) (*research.Verification, error) {
	content, err := r.client.chatJSON(ctx, verifySystemPrompt, buildVerifyPrompt(subject, biography),
		verifyTemperature, verifyMaxTokens)
	if err != nil {
		r.logger.Warn("verification request failed, accepting by default",
			logging.String(logging.FieldArtist, subject.Name),
			logging.Error(err))
		return &research.Verification{
			Accurate:   true,
			Confidence: 0.5,
			Reason:     fmt.Sprintf("verification failed: %v", err),
		}, nil
	}
	var verification research.Verification
	if err := json.Unmarshal([]byte(content), &verification); err != nil {
		r.logger.Warn("verification response unparseable, accepting by default",
			logging.String(logging.FieldArtist, subject.Name),
			logging.Error(err))
		return &research.Verification{
			Accurate:   true,
			Confidence: 0.5,
			Reason:     fmt.Sprintf("verification unparseable: %v", err),
		}, nil
	}
	r.logger.Info("verification result",
		logging.String(logging.FieldArtist, subject.Name),
		logging.Bool("accurate", verification.Accurate),
		logging.Float64(logging.FieldConfidence, verification.Confidence))
	return &verification, nil
}
