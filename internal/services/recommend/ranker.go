package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tavolo/internal/interfaces"
	"github.com/ternarybob/tavolo/internal/models"
	"github.com/ternarybob/tavolo/internal/services/llm"
)

// DefaultRerankCap bounds how many enriched candidates are sent to the
// model for relevance judgment.
const DefaultRerankCap = 8

// DeterministicRanker never judges; every candidate falls through to
// the deterministic scoring formula.
type DeterministicRanker struct{}

func (DeterministicRanker) Rank(ctx context.Context, pref models.PreferenceQuery, candidates []models.PlaceDetail) map[string]models.ModelJudgment {
	return nil
}

// ContentGenerator is the slice of the provider factory the model
// ranker needs; narrowed for stubbing in tests.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error)
}

// rankerInstruction is the fixed template for the relevance-judgment
// call over the enriched candidate set.
const rankerInstruction = `You rank restaurant candidates against a diner's stated preference.
You receive the preference and a numbered candidate list as JSON.
Respond with a single JSON array of judgments, one per candidate you consider a good match (omit poor matches). Each judgment:
- place_id: copied exactly from the candidate
- confidence: number in [0,1], how well the candidate fits the preference
- reasons: up to 3 short phrases a diner would find useful
- description: one or two sentences describing the place for the diner
Respond with the JSON array and nothing else.`

var rankerSchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"place_id":   map[string]interface{}{"type": "string"},
			"confidence": map[string]interface{}{"type": "number"},
			"reasons": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"description": map[string]interface{}{"type": "string"},
		},
		"required": []string{"place_id", "confidence"},
	},
}

// rankerCandidate is the trimmed candidate view sent to the model.
type rankerCandidate struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Category         string   `json:"category,omitempty"`
	PriceTier        string   `json:"price_tier,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
	Address          string   `json:"address,omitempty"`
	ReviewSnippets   []string `json:"review_snippets,omitempty"`
}

// ModelRanker asks a language model to judge the enriched candidates
// against the preference. Any failure (backend, decode, junk place IDs)
// degrades to nil judgments so the pipeline falls back to deterministic
// scoring instead of aborting.
type ModelRanker struct {
	generator ContentGenerator
	logger    arbor.ILogger
	cap       int
}

// NewModelRanker creates a model-assisted relevance ranker
func NewModelRanker(generator ContentGenerator, logger arbor.ILogger, rerankCap int) *ModelRanker {
	if rerankCap <= 0 {
		rerankCap = DefaultRerankCap
	}
	return &ModelRanker{
		generator: generator,
		logger:    logger,
		cap:       rerankCap,
	}
}

func (r *ModelRanker) Rank(ctx context.Context, pref models.PreferenceQuery, candidates []models.PlaceDetail) map[string]models.ModelJudgment {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) > r.cap {
		candidates = candidates[:r.cap]
	}

	prompt, err := buildRankerPrompt(pref, candidates)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Ranker prompt build failed, skipping model ranking")
		return nil
	}

	resp, err := r.generator.GenerateContent(ctx, &llm.ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: prompt},
		},
		SystemInstruction: rankerInstruction,
		Temperature:       0.3,
		OutputSchema:      rankerSchema,
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("Model ranking failed, falling back to deterministic scoring")
		return nil
	}

	var judgments []models.ModelJudgment
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &judgments); err != nil {
		r.logger.Warn().Err(err).Msg("Model ranking response not decodable, falling back to deterministic scoring")
		return nil
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.PlaceID] = true
	}

	out := make(map[string]models.ModelJudgment, len(judgments))
	for _, j := range judgments {
		if !known[j.PlaceID] {
			continue
		}
		j.Confidence = clamp(j.Confidence, 0, 1)
		out[j.PlaceID] = j
	}

	if len(out) == 0 {
		return nil
	}

	r.logger.Debug().Int("judged", len(out)).Int("candidates", len(candidates)).Msg("Model ranking complete")
	return out
}

// buildRankerPrompt serializes the preference and candidate list into
// the user message.
func buildRankerPrompt(pref models.PreferenceQuery, candidates []models.PlaceDetail) (string, error) {
	views := make([]rankerCandidate, 0, len(candidates))
	for _, c := range candidates {
		view := rankerCandidate{
			PlaceID:          c.PlaceID,
			Name:             c.Name,
			Category:         c.PrimaryCategory,
			PriceTier:        string(c.PriceTier),
			Rating:           c.Rating,
			UserRatingsTotal: c.UserRatingsTotal,
			Address:          firstNonEmpty(c.FormattedAddress, c.Vicinity),
		}
		for _, review := range c.Reviews {
			if review.Text != "" {
				view.ReviewSnippets = append(view.ReviewSnippets, review.Text)
			}
		}
		views = append(views, view)
	}

	payload := map[string]interface{}{
		"preference": pref,
		"candidates": views,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode ranker payload: %w", err)
	}
	return string(encoded), nil
}

// stripCodeFence removes a markdown code fence wrapper from a model
// response.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
