package intent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tavolo/internal/interfaces"
	"github.com/ternarybob/tavolo/internal/models"
	"github.com/ternarybob/tavolo/internal/services/llm"
)

// ContentGenerator is the slice of the provider factory the parser
// needs; narrowed for stubbing in tests.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, request *llm.ContentRequest) (*llm.ContentResponse, error)
}

// preferenceInstruction is the fixed template sent with every parse
// request. The response schema enforces the JSON shape on providers
// that support structured output; providers that do not are handled by
// fence stripping on decode.
const preferenceInstruction = `You convert a diner's free-text request into a structured dining preference.
Respond with a single JSON object and nothing else. Fields:
- cuisine_types: array of lowercase cuisine names mentioned or implied (empty if none)
- price_tier: one of "budget", "moderate", "upscale", "fine-dining", "any"
- occasion: short phrase such as "date night" or "birthday" (empty if none)
- ambiance: short phrase such as "romantic" or "casual" (empty if none)
- dietary_restrictions: array such as ["vegetarian", "gluten-free"] (empty if none)
- search_radius_miles: number, use 10 when the request gives no distance
- party_size: integer, use 2 when the request gives no group size
Omit nothing; use the documented defaults for anything the request does not say.`

// preferenceSchema mirrors preferenceInstruction for schema-constrained
// providers.
var preferenceSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"cuisine_types": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"price_tier": map[string]interface{}{
			"type": "string",
			"enum": []string{"budget", "moderate", "upscale", "fine-dining", "any"},
		},
		"occasion": map[string]interface{}{"type": "string"},
		"ambiance": map[string]interface{}{"type": "string"},
		"dietary_restrictions": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"search_radius_miles": map[string]interface{}{"type": "number"},
		"party_size":          map[string]interface{}{"type": "integer"},
	},
	"required": []string{"price_tier", "search_radius_miles", "party_size"},
}

// parsedPreference is the JSON shape the model is asked to produce.
type parsedPreference struct {
	CuisineTypes        []string `json:"cuisine_types"`
	PriceTier           string   `json:"price_tier"`
	Occasion            string   `json:"occasion"`
	Ambiance            string   `json:"ambiance"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	SearchRadiusMiles   float64  `json:"search_radius_miles"`
	PartySize           int      `json:"party_size"`
}

// Service implements the IntentService interface on a text-completion
// backend.
type Service struct {
	generator ContentGenerator
	logger    arbor.ILogger
}

// NewService creates a new intent parsing service
func NewService(generator ContentGenerator, logger arbor.ILogger) interfaces.IntentService {
	return &Service{
		generator: generator,
		logger:    logger,
	}
}

// ParsePreferences converts free text into a structured preference
// query. Any backend or decoding failure degrades to the documented
// defaults; it never returns an error to the caller.
func (s *Service) ParsePreferences(ctx context.Context, freeText string) (models.PreferenceQuery, bool) {
	freeText = strings.TrimSpace(freeText)
	if freeText == "" {
		return models.DefaultPreferences(), false
	}

	request := &llm.ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: freeText},
		},
		SystemInstruction: preferenceInstruction,
		Temperature:       0.2,
		OutputSchema:      preferenceSchema,
	}

	resp, err := s.generator.GenerateContent(ctx, request)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Intent parse failed, falling back to default preferences")
		return models.DefaultPreferences(), false
	}

	var parsed parsedPreference
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &parsed); err != nil {
		s.logger.Warn().Err(err).Msg("Intent response not decodable, falling back to default preferences")
		return models.DefaultPreferences(), false
	}

	pref := models.PreferenceQuery{
		CuisineTypes:        normalizeList(parsed.CuisineTypes),
		PriceTier:           models.ParsePriceTier(parsed.PriceTier),
		Occasion:            strings.TrimSpace(parsed.Occasion),
		Ambiance:            strings.TrimSpace(parsed.Ambiance),
		DietaryRestrictions: normalizeList(parsed.DietaryRestrictions),
		SearchRadiusMiles:   parsed.SearchRadiusMiles,
		PartySize:           parsed.PartySize,
	}.Normalized()

	s.logger.Debug().
		Str("cuisines", strings.Join(pref.CuisineTypes, ",")).
		Str("price_tier", string(pref.PriceTier)).
		Int("party_size", pref.PartySize).
		Msg("Parsed dining preference from free text")

	return pref, true
}

// stripCodeFence removes a markdown code fence wrapper from a model
// response, since some providers fence JSON even when asked not to.
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

// normalizeList lowercases and trims entries, dropping empties.
func normalizeList(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
