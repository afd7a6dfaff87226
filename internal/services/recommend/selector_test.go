package recommend

import (
	"testing"

	"github.com/ternarybob/tavolo/internal/models"
)

func rec(name string, confidence, rating float64, reviews int) models.Recommendation {
	return models.Recommendation{
		PlaceID:          name,
		Name:             name,
		Confidence:       confidence,
		Rating:           rating,
		UserRatingsTotal: reviews,
	}
}

func TestSelectOrdersByBlendedKey(t *testing.T) {
	recs := []models.Recommendation{
		rec("low", 0.5, 3.0, 10),
		rec("high", 0.9, 4.8, 10),
		rec("mid", 0.7, 4.0, 10),
	}

	got := Select(recs, 6)

	want := []string{"high", "mid", "low"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("position %d = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestSelectRatingBreaksEqualConfidence(t *testing.T) {
	// Equal confidence, the higher star rating wins through the 0.3
	// rating term.
	recs := []models.Recommendation{
		rec("three-star", 0.8, 3.0, 10),
		rec("five-star", 0.8, 5.0, 10),
	}

	got := Select(recs, 6)

	if got[0].Name != "five-star" {
		t.Errorf("first = %q, want five-star", got[0].Name)
	}
}

func TestSelectTieBreaks(t *testing.T) {
	tests := []struct {
		name  string
		recs  []models.Recommendation
		first string
	}{
		{
			name: "review count breaks key tie",
			recs: []models.Recommendation{
				rec("few-reviews", 0.8, 4.0, 20),
				rec("many-reviews", 0.8, 4.0, 400),
			},
			first: "many-reviews",
		},
		{
			name: "name breaks full tie",
			recs: []models.Recommendation{
				rec("zeta", 0.8, 4.0, 20),
				rec("alpha", 0.8, 4.0, 20),
			},
			first: "alpha",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.recs, 6)
			if got[0].Name != tt.first {
				t.Errorf("first = %q, want %q", got[0].Name, tt.first)
			}
		})
	}
}

func TestSelectTruncatesToCap(t *testing.T) {
	var recs []models.Recommendation
	for i := 0; i < 10; i++ {
		recs = append(recs, rec(string(rune('a'+i)), 0.5, 4.0, i))
	}

	got := Select(recs, 6)

	if len(got) != 6 {
		t.Errorf("len = %d, want 6", len(got))
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	recs := []models.Recommendation{
		rec("low", 0.1, 3.0, 10),
		rec("high", 0.9, 4.8, 10),
	}

	Select(recs, 6)

	if recs[0].Name != "low" || recs[1].Name != "high" {
		t.Error("input slice was reordered")
	}
}

func TestSelectDeterministic(t *testing.T) {
	recs := []models.Recommendation{
		rec("b", 0.8, 4.0, 20),
		rec("a", 0.8, 4.0, 20),
		rec("c", 0.6, 4.5, 90),
	}

	first := Select(recs, 6)
	second := Select(recs, 6)

	for i := range first {
		if first[i].PlaceID != second[i].PlaceID {
			t.Fatalf("run 1 position %d = %q, run 2 = %q", i, first[i].PlaceID, second[i].PlaceID)
		}
	}
}
