package places

// API status values returned by the Places web service
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusNotFound    = "NOT_FOUND"
)

// searchResponse represents the Places Text Search / Nearby Search API response
type searchResponse struct {
	Results      []placeResult `json:"results"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// detailsResponse represents the Place Details API response
type detailsResponse struct {
	Result       placeResult `json:"result"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// placeResult represents a single place from the Places API. The same
// shape serves search results and detail lookups; detail-only fields
// are simply absent in search responses.
type placeResult struct {
	PlaceID                  string        `json:"place_id"`
	Name                     string        `json:"name"`
	BusinessStatus           string        `json:"business_status,omitempty"`
	FormattedAddress         string        `json:"formatted_address,omitempty"`
	FormattedPhoneNumber     string        `json:"formatted_phone_number,omitempty"`
	InternationalPhoneNumber string        `json:"international_phone_number,omitempty"`
	Website                  string        `json:"website,omitempty"`
	Geometry                 *geometry     `json:"geometry,omitempty"`
	OpeningHours             *openingHours `json:"opening_hours,omitempty"`
	PriceLevel               *int          `json:"price_level,omitempty"`
	Rating                   float64       `json:"rating,omitempty"`
	Reviews                  []review      `json:"reviews,omitempty"`
	Types                    []string      `json:"types,omitempty"`
	UserRatingsTotal         int           `json:"user_ratings_total,omitempty"`
	Vicinity                 string        `json:"vicinity,omitempty"`
}

// geometry represents the geometry information of a place
type geometry struct {
	Location *latLng `json:"location,omitempty"`
}

// latLng represents a geographic coordinate
type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// openingHours represents the opening hours of a place
type openingHours struct {
	OpenNow     bool     `json:"open_now,omitempty"`
	Periods     []period `json:"periods,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// period represents a single opening period
type period struct {
	Open  *dayTime `json:"open,omitempty"`
	Close *dayTime `json:"close,omitempty"`
}

// dayTime represents a specific day and time
type dayTime struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

// review represents a single user review on a place detail
type review struct {
	AuthorName string  `json:"author_name,omitempty"`
	Rating     float64 `json:"rating,omitempty"`
	Text       string  `json:"text,omitempty"`
}
