package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tavolo/internal/common"
	"github.com/ternarybob/tavolo/internal/interfaces"
	"github.com/ternarybob/tavolo/internal/models"
)

// stubGeo is a scripted GeoService shared by the retriever, enricher,
// and pipeline tests.
type stubGeo struct {
	mu sync.Mutex

	stubs     []models.PlaceStub
	searchErr error
	details   map[string]*models.PlaceDetail
	detailErr map[string]error

	// blockDetail makes GetDetail park until the context is cancelled.
	blockDetail bool

	nearbyCalls int
	textCalls   int
	detailCalls int
	lastQuery   string
}

func (g *stubGeo) SearchNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]models.PlaceStub, error) {
	g.mu.Lock()
	g.nearbyCalls++
	g.mu.Unlock()
	return g.stubs, g.searchErr
}

func (g *stubGeo) SearchByText(ctx context.Context, query string, lat, lng float64, radiusMeters int) ([]models.PlaceStub, error) {
	g.mu.Lock()
	g.textCalls++
	g.lastQuery = query
	g.mu.Unlock()
	return g.stubs, g.searchErr
}

func (g *stubGeo) GetDetail(ctx context.Context, placeID string) (*models.PlaceDetail, error) {
	g.mu.Lock()
	g.detailCalls++
	g.mu.Unlock()

	if g.blockDetail {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := g.detailErr[placeID]; ok {
		return nil, err
	}
	if detail, ok := g.details[placeID]; ok {
		copied := *detail
		return &copied, nil
	}
	return nil, fmt.Errorf("detail %s: %w", placeID, interfaces.ErrPlaceNotFound)
}

type stubIntent struct {
	pref   models.PreferenceQuery
	parsed bool
}

func (s *stubIntent) ParsePreferences(ctx context.Context, freeText string) (models.PreferenceQuery, bool) {
	return s.pref, s.parsed
}

type stubRanker struct {
	judgments map[string]models.ModelJudgment
	calls     int
}

func (r *stubRanker) Rank(ctx context.Context, pref models.PreferenceQuery, candidates []models.PlaceDetail) map[string]models.ModelJudgment {
	r.calls++
	return r.judgments
}

func operationalStub(id, name string, rating float64, reviews int, tier models.PriceTier) (models.PlaceStub, *models.PlaceDetail) {
	stub := models.PlaceStub{
		PlaceID:          id,
		Name:             name,
		Rating:           rating,
		UserRatingsTotal: reviews,
		PriceTier:        tier,
		PrimaryCategory:  "italian restaurant",
	}
	return stub, &models.PlaceDetail{
		PlaceStub:        stub,
		FormattedAddress: "1 Test St",
		Status:           models.StatusOperational,
	}
}

func testPipeline(geo interfaces.GeoService, intent interfaces.IntentService, ranker interfaces.RelevanceRanker) interfaces.RecommendService {
	return NewPipeline(geo, intent, ranker, common.PipelineConfig{
		CandidateCap:  12,
		EnrichWorkers: 4,
		OutputCap:     6,
		RerankCap:     8,
		ModelWeight:   1.0,
	}, arbor.NewLogger())
}

var testOrigin = models.Coordinates{Latitude: -33.87, Longitude: 151.21}

func TestSearchByPreferencesOrdersByRating(t *testing.T) {
	s1, d1 := operationalStub("p1", "Best Place", 4.6, 120, models.PriceTierModerate)
	s2, d2 := operationalStub("p2", "Worst Place", 3.2, 120, models.PriceTierModerate)
	s3, d3 := operationalStub("p3", "Middle Place", 4.1, 120, models.PriceTierModerate)
	geo := &stubGeo{
		stubs:   []models.PlaceStub{s1, s2, s3},
		details: map[string]*models.PlaceDetail{"p1": d1, "p2": d2, "p3": d3},
	}

	pref := models.PreferenceQuery{
		CuisineTypes:      []string{"italian"},
		PriceTier:         models.PriceTierModerate,
		SearchRadiusMiles: 5,
	}
	recs, err := testPipeline(geo, nil, nil).SearchByPreferences(context.Background(), pref, testOrigin)

	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Best Place", recs[0].Name)
	assert.Equal(t, "Middle Place", recs[1].Name)
	assert.Equal(t, "Worst Place", recs[2].Name)
	for _, r := range recs {
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
		assert.NotEmpty(t, r.Reasons)
	}
}

func TestSearchByPreferencesEmptyResult(t *testing.T) {
	geo := &stubGeo{}

	recs, err := testPipeline(geo, nil, nil).SearchByPreferences(context.Background(), models.DefaultPreferences(), testOrigin)

	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NotNil(t, recs, "empty result is a successful call, not a nil list")
	assert.Zero(t, geo.detailCalls, "no enrichment after zero candidates")
}

func TestSearchByPreferencesUnreachable(t *testing.T) {
	geo := &stubGeo{searchErr: fmt.Errorf("nearby search: %w", interfaces.ErrGeoUnavailable)}

	recs, err := testPipeline(geo, nil, nil).SearchByPreferences(context.Background(), models.DefaultPreferences(), testOrigin)

	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrGeoUnavailable)
	assert.Nil(t, recs)
	assert.Zero(t, geo.detailCalls, "no further calls after retrieval failure")
}

func TestSearchByPreferencesExcludesPermanentlyClosed(t *testing.T) {
	s1, d1 := operationalStub("p1", "Open Place", 4.6, 120, models.PriceTierModerate)
	s2, d2 := operationalStub("p2", "Gone Place", 4.9, 500, models.PriceTierModerate)
	d2.Status = models.StatusClosedPermanently
	geo := &stubGeo{
		stubs:   []models.PlaceStub{s1, s2},
		details: map[string]*models.PlaceDetail{"p1": d1, "p2": d2},
	}

	recs, err := testPipeline(geo, nil, nil).SearchByPreferences(context.Background(), models.DefaultPreferences(), testOrigin)

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Open Place", recs[0].Name)
}

func TestSearchByPreferencesToleratesEnrichmentFailure(t *testing.T) {
	s1, d1 := operationalStub("p1", "Good Place", 4.6, 120, models.PriceTierModerate)
	s2, _ := operationalStub("p2", "Flaky Place", 4.1, 80, models.PriceTierModerate)
	geo := &stubGeo{
		stubs:     []models.PlaceStub{s1, s2},
		details:   map[string]*models.PlaceDetail{"p1": d1},
		detailErr: map[string]error{"p2": errors.New("timeout")},
	}

	recs, err := testPipeline(geo, nil, nil).SearchByPreferences(context.Background(), models.DefaultPreferences(), testOrigin)

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Good Place", recs[0].Name)
}

func TestSearchByPreferencesIdempotent(t *testing.T) {
	s1, d1 := operationalStub("p1", "Alpha", 4.6, 120, models.PriceTierModerate)
	s2, d2 := operationalStub("p2", "Beta", 4.1, 300, models.PriceTierBudget)
	s3, d3 := operationalStub("p3", "Gamma", 4.1, 300, models.PriceTierBudget)
	geo := &stubGeo{
		stubs:   []models.PlaceStub{s1, s2, s3},
		details: map[string]*models.PlaceDetail{"p1": d1, "p2": d2, "p3": d3},
	}
	pipeline := testPipeline(geo, nil, nil)

	first, err := pipeline.SearchByPreferences(context.Background(), models.DefaultPreferences(), testOrigin)
	require.NoError(t, err)
	second, err := pipeline.SearchByPreferences(context.Background(), models.DefaultPreferences(), testOrigin)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].PlaceID, second[i].PlaceID)
		assert.Equal(t, first[i].Confidence, second[i].Confidence)
	}
}

func TestSearchByPreferencesCancelledMidEnrichment(t *testing.T) {
	s1, _ := operationalStub("p1", "Slow Place", 4.6, 120, models.PriceTierModerate)
	geo := &stubGeo{
		stubs:       []models.PlaceStub{s1},
		blockDetail: true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	recs, err := testPipeline(geo, nil, nil).SearchByPreferences(ctx, models.DefaultPreferences(), testOrigin)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, recs, "no partial list on cancellation")
}

func TestSearchByFreeTextDegradedParse(t *testing.T) {
	s1, d1 := operationalStub("p1", "Taco Spot", 4.3, 90, models.PriceTierBudget)
	geo := &stubGeo{
		stubs:   []models.PlaceStub{s1},
		details: map[string]*models.PlaceDetail{"p1": d1},
	}
	// Parser backend down: defaults, no structured parse recovered.
	intent := &stubIntent{pref: models.DefaultPreferences(), parsed: false}

	recs, err := testPipeline(geo, intent, nil).SearchByFreeText(context.Background(), "cheap tacos nearby", testOrigin)

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, geo.nearbyCalls, "defaulted preference has no cuisine, so plain nearby search")
	assert.Zero(t, geo.textCalls)
}

func TestSearchByFreeTextUsesTextSearch(t *testing.T) {
	s1, d1 := operationalStub("p1", "Trattoria", 4.5, 200, models.PriceTierUpscale)
	geo := &stubGeo{
		stubs:   []models.PlaceStub{s1},
		details: map[string]*models.PlaceDetail{"p1": d1},
	}
	intent := &stubIntent{
		pref: models.PreferenceQuery{
			CuisineTypes: []string{"italian"},
			Occasion:     "date night",
		}.Normalized(),
		parsed: true,
	}

	_, err := testPipeline(geo, intent, nil).SearchByFreeText(context.Background(), "romantic italian dinner", testOrigin)

	require.NoError(t, err)
	assert.Equal(t, 1, geo.textCalls)
	assert.Equal(t, "italian date night restaurant", geo.lastQuery)
}

func TestSearchByFreeTextAppliesModelJudgments(t *testing.T) {
	s1, d1 := operationalStub("p1", "Judged Place", 4.0, 60, models.PriceTierModerate)
	s2, d2 := operationalStub("p2", "Unjudged Place", 4.0, 60, models.PriceTierModerate)
	geo := &stubGeo{
		stubs:   []models.PlaceStub{s1, s2},
		details: map[string]*models.PlaceDetail{"p1": d1, "p2": d2},
	}
	intent := &stubIntent{pref: models.DefaultPreferences(), parsed: true}
	ranker := &stubRanker{judgments: map[string]models.ModelJudgment{
		"p1": {
			PlaceID:     "p1",
			Confidence:  0.98,
			Reasons:     []string{"exactly what you asked for"},
			Description: "A standout pick.",
		},
	}}

	recs, err := testPipeline(geo, intent, ranker).SearchByFreeText(context.Background(), "somewhere great", testOrigin)

	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, ranker.calls)

	assert.Equal(t, "Judged Place", recs[0].Name)
	assert.Equal(t, 0.98, recs[0].Confidence)
	assert.Equal(t, []string{"exactly what you asked for"}, recs[0].Reasons)
	assert.Equal(t, "A standout pick.", recs[0].Description)

	// The unjudged candidate keeps its deterministic score and reasons.
	assert.Less(t, recs[1].Confidence, recs[0].Confidence)
	assert.NotEmpty(t, recs[1].Reasons)
}

func TestSearchByPreferencesNeverInvokesRanker(t *testing.T) {
	s1, d1 := operationalStub("p1", "Plain Place", 4.0, 60, models.PriceTierModerate)
	geo := &stubGeo{
		stubs:   []models.PlaceStub{s1},
		details: map[string]*models.PlaceDetail{"p1": d1},
	}
	ranker := &stubRanker{}

	_, err := testPipeline(geo, nil, ranker).SearchByPreferences(context.Background(), models.DefaultPreferences(), testOrigin)

	require.NoError(t, err)
	assert.Zero(t, ranker.calls, "structured path is deterministic only")
}
