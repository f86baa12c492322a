package gplaces

const (
	textSearchURL = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	detailsURL    = "https://maps.googleapis.com/maps/api/place/details/json"
)

// Statuses returned in the "status" field of every Places API envelope.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusInvalidRequest = "INVALID_REQUEST"
	StatusUnknownError   = "UNKNOWN_ERROR"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusNotFound       = "NOT_FOUND"
)

// IsRetryableStatus reports whether a status is worth retrying after a
// backoff. REQUEST_DENIED and NOT_FOUND never recover on retry.
func IsRetryableStatus(status string) bool {
	switch status {
	case StatusOverQueryLimit, StatusInvalidRequest, StatusUnknownError:
		return true
	default:
		return false
	}
}

type SearchResponse struct {
	Results       []SearchResult `json:"results"`
	NextPageToken string         `json:"next_page_token"`
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message"`
}

// SearchResult is the minimal stub a text-search page returns per place.
type SearchResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	BusinessStatus   string   `json:"business_status"`
	Types            []string `json:"types"`
	Geometry         Geometry `json:"geometry"`
}

type Geometry struct {
	Location Location `json:"location"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PlusCode struct {
	CompoundCode string `json:"compound_code"`
	GlobalCode   string `json:"global_code"`
}

type OpeningHours struct {
	OpenNow     bool     `json:"open_now"`
	WeekdayText []string `json:"weekday_text"`
}

type DetailsResponse struct {
	Result       PlaceDetails `json:"result"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
}

type PlaceDetails struct {
	PlaceID            string        `json:"place_id"`
	Name               string        `json:"name"`
	FormattedAddress   string        `json:"formatted_address"`
	FormattedPhone     string        `json:"formatted_phone_number"`
	InternationalPhone string        `json:"international_phone_number"`
	Website            string        `json:"website"`
	URL                string        `json:"url"`
	Types              []string      `json:"types"`
	Rating             float64       `json:"rating"`
	UserRatingsTotal   int           `json:"user_ratings_total"`
	Geometry           Geometry      `json:"geometry"`
	PlusCode           PlusCode      `json:"plus_code"`
	OpeningHours       *OpeningHours `json:"opening_hours,omitempty"`
}

// detailFields is the field mask sent with every details request. Keeping
// it explicit keeps billing predictable: the details endpoint charges per
// requested field group.
const detailFields = "place_id,name,formatted_address,formatted_phone_number," +
	"international_phone_number,website,url,types,rating,user_ratings_total," +
	"geometry/location,plus_code,opening_hours"
