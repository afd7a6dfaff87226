package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tavolo/internal/interfaces"
	"github.com/ternarybob/tavolo/internal/models"
)

// MetersPerMile converts caller radii to the place source's native unit.
const MetersPerMile = 1609.34

// DefaultCandidateCap bounds the candidate set handed to enrichment.
const DefaultCandidateCap = 12

// Retriever queries the place source for candidates, deduplicates, and
// caps the set. Ordering from the source is preserved.
type Retriever struct {
	geo    interfaces.GeoService
	logger arbor.ILogger
	cap    int
}

// NewRetriever creates a candidate retriever
func NewRetriever(geo interfaces.GeoService, logger arbor.ILogger, candidateCap int) *Retriever {
	if candidateCap <= 0 {
		candidateCap = DefaultCandidateCap
	}
	return &Retriever{
		geo:    geo,
		logger: logger,
		cap:    candidateCap,
	}
}

// Retrieve returns candidate stubs for a preference around an origin.
// When the preference names cuisines or an occasion, the search runs as
// a text query seeded from them; otherwise it is a plain nearby search.
// Zero results is a valid outcome, returned as an empty slice with a
// nil error.
func (r *Retriever) Retrieve(ctx context.Context, pref models.PreferenceQuery, origin models.Coordinates) ([]models.PlaceStub, error) {
	radiusMeters := int(pref.SearchRadiusMiles * MetersPerMile)

	var (
		stubs []models.PlaceStub
		err   error
	)
	if query := searchQuery(pref); query != "" {
		r.logger.Debug().Str("query", query).Int("radius_meters", radiusMeters).Msg("Retrieving candidates by text search")
		stubs, err = r.geo.SearchByText(ctx, query, origin.Latitude, origin.Longitude, radiusMeters)
	} else {
		r.logger.Debug().Int("radius_meters", radiusMeters).Msg("Retrieving candidates by nearby search")
		stubs, err = r.geo.SearchNearby(ctx, origin.Latitude, origin.Longitude, radiusMeters)
	}
	if err != nil {
		return nil, fmt.Errorf("candidate retrieval failed: %w", err)
	}

	stubs = dedupe(stubs)
	if len(stubs) > r.cap {
		stubs = stubs[:r.cap]
	}

	r.logger.Debug().Int("candidates", len(stubs)).Msg("Candidate retrieval complete")
	return stubs, nil
}

// searchQuery builds a text-search query from the preference's cuisine
// and occasion terms. Returns "" when the preference carries neither,
// which routes the search to plain nearby lookup.
func searchQuery(pref models.PreferenceQuery) string {
	var terms []string
	terms = append(terms, pref.CuisineTypes...)
	if pref.Occasion != "" {
		terms = append(terms, pref.Occasion)
	}
	if len(terms) == 0 {
		return ""
	}
	terms = append(terms, "restaurant")
	return strings.Join(terms, " ")
}

// dedupe drops repeated place IDs, keeping the first occurrence.
func dedupe(stubs []models.PlaceStub) []models.PlaceStub {
	seen := make(map[string]bool, len(stubs))
	out := stubs[:0:0]
	for _, stub := range stubs {
		if stub.PlaceID == "" || seen[stub.PlaceID] {
			continue
		}
		seen[stub.PlaceID] = true
		out = append(out, stub)
	}
	return out
}
