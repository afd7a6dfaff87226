package recommend

import (
	"fmt"
	"strings"

	"github.com/ternarybob/tavolo/internal/models"
)

// Deterministic scoring weights
const (
	BaseScore          = 0.5
	BonusGoodRating    = 0.2  // rating >= 4.0
	BonusGreatRating   = 0.1  // rating >= 4.5, on top of BonusGoodRating
	BonusPriceMatch    = 0.15 // place tier equals preference tier (never when preference is "any")
	BonusReviewVolume  = 0.1  // more than 50 reviews
	BonusReviewDepth   = 0.05 // more than 200 reviews, on top of BonusReviewVolume
	BonusOperational   = 0.1
	GoodRatingFloor    = 4.0
	GreatRatingFloor   = 4.5
	ReviewVolumeFloor  = 50
	ReviewDepthFloor   = 200
	PopularReviewFloor = 100
)

// MaxReasons caps the reason strings attached to one recommendation.
const MaxReasons = 3

// Score builds a Recommendation for one enriched candidate. judgment is
// the model ranker's verdict for this place, nil when the model did not
// select it (or was never invoked); modelWeight blends the model
// confidence against the deterministic score when both exist (1.0 means
// the model is authoritative).
//
// Callers must filter permanently-closed places before scoring; Score
// panics on nothing but will happily score a closed place if handed one.
func Score(detail *models.PlaceDetail, pref models.PreferenceQuery, judgment *models.ModelJudgment, modelWeight float64) models.Recommendation {
	confidence := deterministicScore(detail, pref)
	reasons := buildReasons(detail, pref)
	description := synthesizeDescription(detail)

	if judgment != nil {
		confidence = clamp(confidence*(1-modelWeight)+judgment.Confidence*modelWeight, 0, 1)
		if len(judgment.Reasons) > 0 {
			reasons = judgment.Reasons
			if len(reasons) > MaxReasons {
				reasons = reasons[:MaxReasons]
			}
		}
		if judgment.Description != "" {
			description = judgment.Description
		}
	}

	rec := models.Recommendation{
		PlaceID:          detail.PlaceID,
		Name:             detail.Name,
		Category:         detail.PrimaryCategory,
		PriceTier:        detail.PriceTier,
		Rating:           detail.Rating,
		UserRatingsTotal: detail.UserRatingsTotal,
		Address:          firstNonEmpty(detail.FormattedAddress, detail.Vicinity),
		PhoneNumber:      detail.PhoneNumber,
		Website:          detail.Website,
		Confidence:       confidence,
		Reasons:          reasons,
		Description:      description,
	}

	if detail.Hours != nil {
		rec.HoursText = detail.Hours.WeekdayText
		rec.OpenNow = detail.Hours.OpenNow
	}

	return rec
}

// deterministicScore applies the fixed additive formula and clamps the
// result to [0, 1].
func deterministicScore(detail *models.PlaceDetail, pref models.PreferenceQuery) float64 {
	score := BaseScore

	if detail.Rating >= GoodRatingFloor {
		score += BonusGoodRating
	}
	if detail.Rating >= GreatRatingFloor {
		score += BonusGreatRating
	}
	if priceMatches(detail, pref) {
		score += BonusPriceMatch
	}
	if detail.UserRatingsTotal > ReviewVolumeFloor {
		score += BonusReviewVolume
	}
	if detail.UserRatingsTotal > ReviewDepthFloor {
		score += BonusReviewDepth
	}
	if detail.Operational() {
		score += BonusOperational
	}

	return clamp(score, 0, 1)
}

// buildReasons emits up to MaxReasons human-readable match reasons in
// priority order.
func buildReasons(detail *models.PlaceDetail, pref models.PreferenceQuery) []string {
	var reasons []string

	if detail.Rating >= GoodRatingFloor {
		reasons = append(reasons, fmt.Sprintf("highly rated (%.1f/5)", detail.Rating))
	}
	if priceMatches(detail, pref) {
		reasons = append(reasons, fmt.Sprintf("matches your %s budget", pref.PriceTier))
	}
	if cuisine := matchedCuisine(detail, pref); cuisine != "" {
		reasons = append(reasons, fmt.Sprintf("serves %s", cuisine))
	}
	if detail.UserRatingsTotal > PopularReviewFloor {
		reasons = append(reasons, fmt.Sprintf("popular choice (%d+ reviews)", detail.UserRatingsTotal))
	}
	if dietary := matchedDietary(detail, pref); dietary != "" {
		reasons = append(reasons, fmt.Sprintf("%s friendly", dietary))
	}

	// Confidence is never zero, so a recommendation always carries at
	// least one reason.
	if len(reasons) == 0 {
		reasons = append(reasons, "nearby match")
	}
	if len(reasons) > MaxReasons {
		reasons = reasons[:MaxReasons]
	}
	return reasons
}

func priceMatches(detail *models.PlaceDetail, pref models.PreferenceQuery) bool {
	if pref.PriceTier == models.PriceTierAny || pref.PriceTier == "" {
		return false
	}
	return detail.PriceTier == pref.PriceTier
}

// matchedCuisine returns the first requested cuisine found in the
// place's categories or name, or "" when nothing matches.
func matchedCuisine(detail *models.PlaceDetail, pref models.PreferenceQuery) string {
	if !pref.WantsCuisine() {
		return ""
	}

	haystack := strings.ToLower(detail.Name + " " + detail.PrimaryCategory + " " + strings.Join(detail.Types, " "))
	for _, cuisine := range pref.CuisineTypes {
		if cuisine != "" && strings.Contains(haystack, strings.ToLower(cuisine)) {
			return cuisine
		}
	}
	return ""
}

// matchedDietary is a soft signal only: dietary restrictions never
// filter candidates, they just earn a reason when the place advertises
// the restriction in its name or categories.
func matchedDietary(detail *models.PlaceDetail, pref models.PreferenceQuery) string {
	if len(pref.DietaryRestrictions) == 0 {
		return ""
	}

	haystack := strings.ToLower(detail.Name + " " + strings.Join(detail.Types, " "))
	for _, restriction := range pref.DietaryRestrictions {
		if restriction != "" && strings.Contains(haystack, strings.ToLower(restriction)) {
			return restriction
		}
	}
	return ""
}

// synthesizeDescription builds a one-sentence fallback description from
// rating, category, and address.
func synthesizeDescription(detail *models.PlaceDetail) string {
	var parts []string

	if detail.Rating > 0 {
		parts = append(parts, fmt.Sprintf("%.1f-star", detail.Rating))
	}
	if detail.PrimaryCategory != "" {
		parts = append(parts, strings.ReplaceAll(detail.PrimaryCategory, "_", " "))
	} else {
		parts = append(parts, "restaurant")
	}

	sentence := strings.Join(parts, " ")
	if addr := firstNonEmpty(detail.FormattedAddress, detail.Vicinity); addr != "" {
		sentence += " at " + addr
	}
	if detail.UserRatingsTotal > 0 {
		sentence += fmt.Sprintf(", %d reviews", detail.UserRatingsTotal)
	}
	return sentence
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
