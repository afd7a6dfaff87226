package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/tavolo/internal/models"
)

// ErrGeoUnavailable marks a place-source failure where the service
// itself could not be reached or refused the request. Callers must be
// able to distinguish this from zero results.
var ErrGeoUnavailable = errors.New("place service unavailable")

// ErrPlaceNotFound is returned by GetDetail when the place ID does not
// resolve to a place.
var ErrPlaceNotFound = errors.New("place not found")

// GeoService defines the place search and detail lookup operations the
// pipeline consumes. Radii are in meters (the source's native unit);
// unit conversion from caller miles happens in the retriever.
type GeoService interface {
	// SearchNearby returns place stubs around a coordinate. A nil error
	// with an empty slice means "no nearby candidates", which is a
	// valid outcome, not a failure.
	SearchNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]models.PlaceStub, error)

	// SearchByText returns place stubs matching a free-text query,
	// biased to the given coordinate and radius.
	SearchByText(ctx context.Context, query string, lat, lng float64, radiusMeters int) ([]models.PlaceStub, error)

	// GetDetail returns the full detail for one place. Returns an error
	// wrapping ErrPlaceNotFound when the ID is unknown and an error
	// wrapping ErrGeoUnavailable on transport or API failure.
	GetDetail(ctx context.Context, placeID string) (*models.PlaceDetail, error)
}
