package models

import "strings"

// PriceTier buckets a restaurant's cost level
type PriceTier string

const (
	PriceTierAny        PriceTier = "any"
	PriceTierBudget     PriceTier = "budget"
	PriceTierModerate   PriceTier = "moderate"
	PriceTierUpscale    PriceTier = "upscale"
	PriceTierFineDining PriceTier = "fine-dining"
)

// Preference defaults
const (
	DefaultSearchRadiusMiles = 10.0
	DefaultPartySize         = 2
)

// ParsePriceTier normalizes a free-form tier string to a PriceTier.
// Unknown values map to PriceTierAny so a sloppy model response can
// never produce an invalid preference.
func ParsePriceTier(s string) PriceTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "budget", "cheap", "inexpensive":
		return PriceTierBudget
	case "moderate", "mid-range", "midrange":
		return PriceTierModerate
	case "upscale", "expensive":
		return PriceTierUpscale
	case "fine-dining", "fine_dining", "finedining":
		return PriceTierFineDining
	default:
		return PriceTierAny
	}
}

// PreferenceQuery is a structured dining preference. It is constructed
// once (directly by a caller or derived from free text by the intent
// service) and never mutated by the pipeline.
type PreferenceQuery struct {
	CuisineTypes        []string  `json:"cuisine_types,omitempty"`
	PriceTier           PriceTier `json:"price_tier"`
	Occasion            string    `json:"occasion,omitempty"`
	Ambiance            string    `json:"ambiance,omitempty"`
	DietaryRestrictions []string  `json:"dietary_restrictions,omitempty"`
	SearchRadiusMiles   float64   `json:"search_radius_miles" validate:"gt=0"`
	PartySize           int       `json:"party_size" validate:"gt=0"`
}

// DefaultPreferences returns the degraded-but-functional fallback used
// when free-text parsing yields nothing structured.
func DefaultPreferences() PreferenceQuery {
	return PreferenceQuery{
		PriceTier:         PriceTierAny,
		SearchRadiusMiles: DefaultSearchRadiusMiles,
		PartySize:         DefaultPartySize,
	}
}

// Normalized returns a copy with zero-valued fields replaced by their
// documented defaults.
func (p PreferenceQuery) Normalized() PreferenceQuery {
	if p.PriceTier == "" {
		p.PriceTier = PriceTierAny
	}
	if p.SearchRadiusMiles <= 0 {
		p.SearchRadiusMiles = DefaultSearchRadiusMiles
	}
	if p.PartySize <= 0 {
		p.PartySize = DefaultPartySize
	}
	return p
}

// WantsCuisine reports whether the preference names at least one cuisine.
func (p PreferenceQuery) WantsCuisine() bool {
	return len(p.CuisineTypes) > 0
}

// Coordinates is a geographic point (WGS84)
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
