package interfaces

import (
	"context"

	"github.com/ternarybob/tavolo/internal/models"
)

// RecommendService is the pipeline surface exposed to callers. Both
// entry points honor ctx cancellation and deadlines end to end.
//
// Error contract:
//   - empty slice, nil error: pipeline completed but nothing survived
//     retrieval/enrichment/filtering ("no matches found")
//   - error wrapping ErrGeoUnavailable: the place source was
//     unreachable ("search temporarily unavailable")
//   - context.Canceled / context.DeadlineExceeded: caller cancellation
//
// Per-candidate failures never surface here.
type RecommendService interface {
	SearchByPreferences(ctx context.Context, pref models.PreferenceQuery, origin models.Coordinates) ([]models.Recommendation, error)
	SearchByFreeText(ctx context.Context, freeText string, origin models.Coordinates) ([]models.Recommendation, error)
}
