package intent

import (
	"context"
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
	calls   int
}

func (g *stubGenerator) GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error) {
	g.calls++
	g.lastReq = request
	if g.err != nil {
		return nil, g.err
	}
	return &llm.ContentResponse{Text: g.text}, nil
}

func newTestService(gen *stubGenerator) *Service {
	return &Service{
		generator: gen,
		logger:    arbor.NewLogger(),
	}
}

func TestParsePreferences(t *testing.T) {
	gen := &stubGenerator{
		text: `{
			"cuisine_types": ["Italian", " thai "],
			"price_tier": "upscale",
			"occasion": "anniversary",
			"ambiance": "romantic",
			"dietary_restrictions": ["Vegetarian"],
			"search_radius_miles": 5,
			"party_size": 4
		}`,
	}
	service := newTestService(gen)

	pref, ok := service.ParsePreferences(context.Background(), "romantic upscale italian for our anniversary, party of 4, within 5 miles")

	require.True(t, ok)
	assert.Equal(t, []string{"italian", "thai"}, pref.CuisineTypes)
	assert.Equal(t, models.PriceTierUpscale, pref.PriceTier)
	assert.Equal(t, "anniversary", pref.Occasion)
	assert.Equal(t, "romantic", pref.Ambiance)
	assert.Equal(t, []string{"vegetarian"}, pref.DietaryRestrictions)
	assert.Equal(t, 5.0, pref.SearchRadiusMiles)
	assert.Equal(t, 4, pref.PartySize)

	require.NotNil(t, gen.lastReq)
	assert.Equal(t, preferenceInstruction, gen.lastReq.SystemInstruction)
	assert.NotNil(t, gen.lastReq.OutputSchema)
	require.Len(t, gen.lastReq.Messages, 1)
	assert.Equal(t, "user", gen.lastReq.Messages[0].Role)
}

func TestParsePreferencesFencedResponse(t *testing.T) {
	gen := &stubGenerator{
		text: "```json\n{\"cuisine_types\": [\"mexican\"], \"price_tier\": \"budget\", \"search_radius_miles\": 10, \"party_size\": 2}\n```",
	}
	service := newTestService(gen)

	pref, ok := service.ParsePreferences(context.Background(), "cheap tacos nearby")

	require.True(t, ok)
	assert.Equal(t, []string{"mexican"}, pref.CuisineTypes)
	assert.Equal(t, models.PriceTierBudget, pref.PriceTier)
}

func TestParsePreferencesBackendError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model unavailable")}
	service := newTestService(gen)

	pref, ok := service.ParsePreferences(context.Background(), "somewhere nice for dinner")

	assert.False(t, ok)
	assert.Equal(t, models.DefaultPreferences(), pref)
}

func TestParsePreferencesMalformedJSON(t *testing.T) {
	gen := &stubGenerator{text: "I'd suggest looking for Italian restaurants!"}
	service := newTestService(gen)

	pref, ok := service.ParsePreferences(context.Background(), "italian dinner")

	assert.False(t, ok)
	assert.Equal(t, models.DefaultPreferences(), pref)
}

func TestParsePreferencesEmptyText(t *testing.T) {
	gen := &stubGenerator{}
	service := newTestService(gen)

	pref, ok := service.ParsePreferences(context.Background(), "   ")

	assert.False(t, ok)
	assert.Equal(t, models.DefaultPreferences(), pref)
	assert.Zero(t, gen.calls, "empty input should not reach the model")
}

func TestParsePreferencesDefaultsApplied(t *testing.T) {
	gen := &stubGenerator{
		text: `{"cuisine_types": ["sushi"], "price_tier": "", "search_radius_miles": 0, "party_size": 0}`,
	}
	service := newTestService(gen)

	pref, ok := service.ParsePreferences(context.Background(), "sushi")

	require.True(t, ok)
	assert.Equal(t, models.PriceTierAny, pref.PriceTier)
	assert.Equal(t, models.DefaultSearchRadiusMiles, pref.SearchRadiusMiles)
	assert.Equal(t, models.DefaultPartySize, pref.PartySize)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"whitespace", "  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripCodeFence(tt.input))
		})
	}
}
