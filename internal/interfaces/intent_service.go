package interfaces

import (
	"context"

	"github.com/ternarybob/tavolo/internal/models"
)

// IntentService converts free text describing a dining want into a
// structured preference query.
type IntentService interface {
	// ParsePreferences never fails: when the completion backend is
	// unavailable or returns something that cannot be decoded, it
	// returns models.DefaultPreferences(). The boolean reports whether
	// a structured parse was actually recovered, so callers can tell a
	// real parse from the degraded fallback.
	ParsePreferences(ctx context.Context, freeText string) (models.PreferenceQuery, bool)
}
