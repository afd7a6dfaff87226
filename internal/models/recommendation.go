package models

// Recommendation is the pipeline's output unit. Confidence is always in
// [0,1] and Reasons is non-empty whenever Confidence > 0.
type Recommendation struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	Category         string    `json:"category,omitempty"`
	PriceTier        PriceTier `json:"price_tier,omitempty"`
	Rating           float64   `json:"rating,omitempty"`
	UserRatingsTotal int       `json:"user_ratings_total,omitempty"`
	Address          string    `json:"address,omitempty"`
	PhoneNumber      string    `json:"phone_number,omitempty"`
	Website          string    `json:"website,omitempty"`
	HoursText        []string  `json:"hours_text,omitempty"`
	OpenNow          bool      `json:"open_now"`
	Confidence       float64   `json:"confidence"`
	Reasons          []string  `json:"reasons,omitempty"`
	Description      string    `json:"description,omitempty"`
}

// ModelJudgment is a relevance judgment produced by the model-assisted
// ranking step for a single candidate. When present for a candidate it
// takes precedence over the deterministic scoring formula.
type ModelJudgment struct {
	PlaceID     string   `json:"place_id"`
	Confidence  float64  `json:"confidence"`
	Reasons     []string `json:"reasons,omitempty"`
	Description string   `json:"description,omitempty"`
}
