package models

// BusinessStatus mirrors the operating-status flag reported by the
// place source.
type BusinessStatus string

const (
	StatusOperational       BusinessStatus = "OPERATIONAL"
	StatusClosedTemporarily BusinessStatus = "CLOSED_TEMPORARILY"
	StatusClosedPermanently BusinessStatus = "CLOSED_PERMANENTLY"
)

// PlaceStub is a lightweight search result: enough to decide whether a
// candidate is worth enriching, nothing more. Stubs are ephemeral and
// never persisted.
type PlaceStub struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	Rating           float64   `json:"rating,omitempty"`
	UserRatingsTotal int       `json:"user_ratings_total,omitempty"`
	PriceTier        PriceTier `json:"price_tier,omitempty"`
	Vicinity         string    `json:"vicinity,omitempty"`
	PrimaryCategory  string    `json:"primary_category,omitempty"`
	Types            []string  `json:"types,omitempty"`
}

// OpeningPeriod is a single day-indexed open/close window.
// Day is 0 (Sunday) through 6 (Saturday); times are "HHMM".
type OpeningPeriod struct {
	OpenDay   int    `json:"open_day"`
	OpenTime  string `json:"open_time"`
	CloseDay  int    `json:"close_day"`
	CloseTime string `json:"close_time"`
}

// OpeningHours holds the structured hours for a place.
type OpeningHours struct {
	OpenNow     bool            `json:"open_now"`
	Periods     []OpeningPeriod `json:"periods,omitempty"`
	WeekdayText []string        `json:"weekday_text,omitempty"`
}

// PlaceDetail extends a PlaceStub with the fields the scorer and the
// final recommendation need. Exactly one PlaceDetail corresponds to one
// PlaceStub, keyed by PlaceID.
type PlaceDetail struct {
	PlaceStub

	FormattedAddress string          `json:"formatted_address,omitempty"`
	PhoneNumber      string          `json:"phone_number,omitempty"`
	Website          string          `json:"website,omitempty"`
	Hours            *OpeningHours   `json:"hours,omitempty"`
	Reviews          []ReviewSnippet `json:"reviews,omitempty"`
	Status           BusinessStatus  `json:"status,omitempty"`
	Location         Coordinates     `json:"location"`
}

// ReviewSnippet is a short excerpt of a recent review.
type ReviewSnippet struct {
	Author string  `json:"author,omitempty"`
	Rating float64 `json:"rating,omitempty"`
	Text   string  `json:"text"`
}

// Operational reports whether the place is currently trading. An empty
// status is treated as operational because the source omits the field
// for most open businesses.
func (d *PlaceDetail) Operational() bool {
	return d.Status == StatusOperational || d.Status == ""
}

// PermanentlyClosed reports whether the place must be excluded from
// scoring entirely.
func (d *PlaceDetail) PermanentlyClosed() bool {
	return d.Status == StatusClosedPermanently
}
