package interfaces

import (
	"context"

	"github.com/ternarybob/tavolo/internal/models"
)

// RelevanceRanker is the pluggable model-assisted ranking strategy
// applied over the enriched candidate set on the free-text path.
// Implementations return judgments keyed by place ID for the candidates
// they selected; candidates absent from the map fall back to the
// deterministic scoring formula.
//
// A nil map with a nil error means the ranker declined to judge (the
// deterministic-only implementation always does this); a ranker backend
// failure is also reported as nil judgments rather than an error so the
// pipeline degrades instead of aborting.
type RelevanceRanker interface {
	Rank(ctx context.Context, pref models.PreferenceQuery, candidates []models.PlaceDetail) map[string]models.ModelJudgment
}
