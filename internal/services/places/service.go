package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/tavolo/internal/common"
	"github.com/ternarybob/tavolo/internal/interfaces"
	"github.com/ternarybob/tavolo/internal/models"
)

// DefaultBaseURL is the base URL for the Places web service.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// maxReviewSnippets caps how many review excerpts a detail carries.
const maxReviewSnippets = 5

// Service implements the GeoService interface against the Google
// Places API.
type Service struct {
	config     *common.PlacesAPIConfig
	logger     arbor.ILogger
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures the Service.
type Option func(*Service)

// WithBaseURL sets a custom base URL (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		s.httpClient = client
	}
}

// NewService creates a new Places service instance. The API key is
// resolved env -> KV store -> config.
func NewService(
	config *common.PlacesAPIConfig,
	kvStorage interfaces.KeyValueStorage,
	logger arbor.ILogger,
	opts ...Option,
) (interfaces.GeoService, error) {
	apiKey, err := common.ResolveAPIKey(context.Background(), kvStorage, "google_places_api_key", config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("places service: %w", err)
	}

	s := &Service{
		config:  config,
		logger:  logger,
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// SearchNearby performs a Nearby Search restricted to restaurants.
func (s *Service) SearchNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]models.PlaceStub, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", strconv.Itoa(radiusMeters))
	params.Set("type", "restaurant")

	var resp searchResponse
	if err := s.get(ctx, "/nearbysearch/json", params, &resp); err != nil {
		return nil, err
	}

	stubs := s.convertSearchResults(resp)

	s.logger.Info().
		Float64("latitude", lat).
		Float64("longitude", lng).
		Int("radius", radiusMeters).
		Int("results_count", len(stubs)).
		Str("status", resp.Status).
		Msg("Places nearby search completed")

	return stubs, nil
}

// SearchByText performs a Text Search biased to the given coordinate.
func (s *Service) SearchByText(ctx context.Context, query string, lat, lng float64, radiusMeters int) ([]models.PlaceStub, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", strconv.Itoa(radiusMeters))

	var resp searchResponse
	if err := s.get(ctx, "/textsearch/json", params, &resp); err != nil {
		return nil, err
	}

	stubs := s.convertSearchResults(resp)

	s.logger.Info().
		Str("search_query", query).
		Int("results_count", len(stubs)).
		Str("status", resp.Status).
		Msg("Places text search completed")

	return stubs, nil
}

// GetDetail performs a Place Details lookup for one place ID.
func (s *Service) GetDetail(ctx context.Context, placeID string) (*models.PlaceDetail, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,name,business_status,formatted_address,formatted_phone_number,website,geometry,opening_hours,price_level,rating,reviews,types,user_ratings_total,vicinity")

	endpoint := s.baseURL + "/details/json"
	body, err := s.fetch(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var resp detailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode details response: %w", interfaces.ErrGeoUnavailable)
	}

	switch resp.Status {
	case statusOK:
	case statusNotFound, "INVALID_REQUEST":
		return nil, fmt.Errorf("place %s: %w", placeID, interfaces.ErrPlaceNotFound)
	default:
		return nil, fmt.Errorf("details API error %s: %s: %w", resp.Status, resp.ErrorMessage, interfaces.ErrGeoUnavailable)
	}

	detail := convertDetail(resp.Result)

	s.logger.Debug().
		Str("place_id", placeID).
		Str("name", detail.Name).
		Str("status", string(detail.Status)).
		Msg("Place detail fetched")

	return detail, nil
}

// get fetches a search endpoint and decodes the shared search response
// shape, normalizing API status handling.
func (s *Service) get(ctx context.Context, path string, params url.Values, resp *searchResponse) error {
	body, err := s.fetch(ctx, s.baseURL+path, params)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, resp); err != nil {
		return fmt.Errorf("failed to decode search response: %w", interfaces.ErrGeoUnavailable)
	}

	if resp.Status != statusOK && resp.Status != statusZeroResults {
		return fmt.Errorf("search API error %s: %s: %w", resp.Status, resp.ErrorMessage, interfaces.ErrGeoUnavailable)
	}

	return nil
}

// fetch performs a rate-limited GET and returns the response body.
// Transport failures and non-200 responses wrap ErrGeoUnavailable so
// callers can tell "service down" from "zero results".
func (s *Service) fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("key", s.apiKey)
	fullURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	// Redact API key in logs
	params.Set("key", "***REDACTED***")
	s.logger.Debug().Str("url", fmt.Sprintf("%s?%s", endpoint, params.Encode())).Msg("Calling Places API")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to call Places API: %v: %w", err, interfaces.ErrGeoUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v: %w", err, interfaces.ErrGeoUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Places API returned status %d: %w", resp.StatusCode, interfaces.ErrGeoUnavailable)
	}

	return body, nil
}

// convertSearchResults maps and caps a search response to place stubs.
func (s *Service) convertSearchResults(resp searchResponse) []models.PlaceStub {
	results := resp.Results
	if len(results) > s.config.MaxResultsPerSearch {
		results = results[:s.config.MaxResultsPerSearch]
	}

	stubs := make([]models.PlaceStub, 0, len(results))
	for _, r := range results {
		stubs = append(stubs, convertStub(r))
	}
	return stubs
}

func convertStub(r placeResult) models.PlaceStub {
	return models.PlaceStub{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		Rating:           r.Rating,
		UserRatingsTotal: r.UserRatingsTotal,
		PriceTier:        priceTierFromLevel(r.PriceLevel),
		Vicinity:         firstNonEmpty(r.Vicinity, r.FormattedAddress),
		PrimaryCategory:  primaryCategory(r.Types),
		Types:            r.Types,
	}
}

func convertDetail(r placeResult) *models.PlaceDetail {
	detail := &models.PlaceDetail{
		PlaceStub:        convertStub(r),
		FormattedAddress: firstNonEmpty(r.FormattedAddress, r.Vicinity),
		PhoneNumber:      firstNonEmpty(r.FormattedPhoneNumber, r.InternationalPhoneNumber),
		Website:          r.Website,
		Status:           businessStatus(r.BusinessStatus),
	}

	if r.Geometry != nil && r.Geometry.Location != nil {
		detail.Location = models.Coordinates{
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
		}
	}

	if r.OpeningHours != nil {
		hours := &models.OpeningHours{
			OpenNow:     r.OpeningHours.OpenNow,
			WeekdayText: r.OpeningHours.WeekdayText,
		}
		for _, p := range r.OpeningHours.Periods {
			if p.Open == nil {
				continue
			}
			op := models.OpeningPeriod{
				OpenDay:  p.Open.Day,
				OpenTime: p.Open.Time,
			}
			if p.Close != nil {
				op.CloseDay = p.Close.Day
				op.CloseTime = p.Close.Time
			}
			hours.Periods = append(hours.Periods, op)
		}
		detail.Hours = hours
	}

	for i, rev := range r.Reviews {
		if i >= maxReviewSnippets {
			break
		}
		detail.Reviews = append(detail.Reviews, models.ReviewSnippet{
			Author: rev.AuthorName,
			Rating: rev.Rating,
			Text:   rev.Text,
		})
	}

	return detail
}

// businessStatus maps the API's business_status string to a typed flag.
func businessStatus(s string) models.BusinessStatus {
	switch s {
	case "OPERATIONAL", "":
		return models.StatusOperational
	case "CLOSED_TEMPORARILY":
		return models.StatusClosedTemporarily
	case "CLOSED_PERMANENTLY":
		return models.StatusClosedPermanently
	default:
		return models.BusinessStatus(s)
	}
}

// priceTierFromLevel maps the API's 0-4 price_level to a tier. A
// missing level maps to the empty tier (unknown).
func priceTierFromLevel(level *int) models.PriceTier {
	if level == nil {
		return ""
	}
	switch *level {
	case 0, 1:
		return models.PriceTierBudget
	case 2:
		return models.PriceTierModerate
	case 3:
		return models.PriceTierUpscale
	default:
		return models.PriceTierFineDining
	}
}

// genericTypes are Places types too broad to describe a restaurant.
var genericTypes = map[string]bool{
	"restaurant":        true,
	"food":              true,
	"point_of_interest": true,
	"establishment":     true,
	"store":             true,
}

// primaryCategory picks the most specific type as the place's category.
func primaryCategory(types []string) string {
	for _, t := range types {
		if !genericTypes[t] {
			return t
		}
	}
	if len(types) > 0 {
		return types[0]
	}
	return "restaurant"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
