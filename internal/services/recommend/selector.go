package recommend

import (
	"sort"

	"github.com/ternarybob/tavolo/internal/models"
)

// Selection sort-key weights
const (
	WeightConfidence = 0.7
	WeightRating     = 0.3
)

// DefaultOutputCap bounds the recommendations returned to a caller.
const DefaultOutputCap = 6

// sortKey blends confidence with the normalized star rating.
func sortKey(rec models.Recommendation) float64 {
	return WeightConfidence*rec.Confidence + WeightRating*(rec.Rating/5.0)
}

// Select orders recommendations best-first and truncates to cap. Ties
// on the blended key break by higher review count, then by name, so
// identical inputs always produce identical output. The input slice is
// not mutated.
func Select(recs []models.Recommendation, cap int) []models.Recommendation {
	if cap <= 0 {
		cap = DefaultOutputCap
	}

	out := make([]models.Recommendation, len(recs))
	copy(out, recs)

	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := sortKey(out[i]), sortKey(out[j])
		if ki != kj {
			return ki > kj
		}
		if out[i].UserRatingsTotal != out[j].UserRatingsTotal {
			return out[i].UserRatingsTotal > out[j].UserRatingsTotal
		}
		return out[i].Name < out[j].Name
	})

	if len(out) > cap {
		out = out[:cap]
	}
	return out
}
