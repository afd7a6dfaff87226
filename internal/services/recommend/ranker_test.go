package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tavolo/internal/models"
	"github.com/ternarybob/tavolo/internal/services/llm"
)

type stubGenerator struct {
	text    string
	err     error
	lastReq *llm.ContentRequest
}

func (g *stubGenerator) GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error) {
	g.lastReq = request
	if g.err != nil {
		return nil, g.err
	}
	return &llm.ContentResponse{Text: g.text}, nil
}

func candidates(n int) []models.PlaceDetail {
	out := make([]models.PlaceDetail, n)
	for i := range out {
		out[i] = models.PlaceDetail{
			PlaceStub: models.PlaceStub{PlaceID: string(rune('a' + i)), Name: "Place"},
			Status:    models.StatusOperational,
		}
	}
	return out
}

func TestDeterministicRankerDeclines(t *testing.T) {
	got := DeterministicRanker{}.Rank(context.Background(), models.DefaultPreferences(), candidates(3))
	assert.Nil(t, got)
}

func TestModelRankerJudgments(t *testing.T) {
	gen := &stubGenerator{
		text: `[
			{"place_id": "a", "confidence": 0.9, "reasons": ["great fit"], "description": "A fine spot."},
			{"place_id": "b", "confidence": 1.7},
			{"place_id": "zzz", "confidence": 0.5}
		]`,
	}
	ranker := NewModelRanker(gen, arbor.NewLogger(), 8)

	got := ranker.Rank(context.Background(), models.DefaultPreferences(), candidates(3))

	require.Len(t, got, 2)
	assert.Equal(t, 0.9, got["a"].Confidence)
	assert.Equal(t, []string{"great fit"}, got["a"].Reasons)
	assert.Equal(t, 1.0, got["b"].Confidence, "confidence clamped to [0,1]")
	_, ok := got["zzz"]
	assert.False(t, ok, "judgments for unknown place IDs are dropped")
}

func TestModelRankerBackendFailure(t *testing.T) {
	ranker := NewModelRanker(&stubGenerator{err: errors.New("quota exceeded")}, arbor.NewLogger(), 8)

	got := ranker.Rank(context.Background(), models.DefaultPreferences(), candidates(3))

	assert.Nil(t, got)
}

func TestModelRankerMalformedResponse(t *testing.T) {
	ranker := NewModelRanker(&stubGenerator{text: "these all look great to me"}, arbor.NewLogger(), 8)

	got := ranker.Rank(context.Background(), models.DefaultPreferences(), candidates(3))

	assert.Nil(t, got)
}

func TestModelRankerCapsCandidates(t *testing.T) {
	gen := &stubGenerator{text: `[]`}
	ranker := NewModelRanker(gen, arbor.NewLogger(), 8)

	ranker.Rank(context.Background(), models.DefaultPreferences(), candidates(12))

	require.NotNil(t, gen.lastReq)
	require.Len(t, gen.lastReq.Messages, 1)

	var payload struct {
		Candidates []json.RawMessage `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal([]byte(gen.lastReq.Messages[0].Content), &payload))
	assert.Len(t, payload.Candidates, 8)
}

func TestModelRankerNoCandidates(t *testing.T) {
	gen := &stubGenerator{text: `[]`}
	ranker := NewModelRanker(gen, arbor.NewLogger(), 8)

	got := ranker.Rank(context.Background(), models.DefaultPreferences(), nil)

	assert.Nil(t, got)
	assert.Nil(t, gen.lastReq, "no model call without candidates")
}
