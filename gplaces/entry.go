package gplaces

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	olc "github.com/google/open-location-code/go"
)

// Entry is the enriched business record written to the output. It is
// created once per unique place id and never updated afterwards: the first
// occurrence of an id wins, later duplicates are dropped before the
// details fetch.
type Entry struct {
	ID           string   `json:"input_id"`
	Link         string   `json:"google_place_url"`
	Title        string   `json:"business_name"`
	WebSite      string   `json:"business_website"`
	Phone        string   `json:"business_phone"`
	IntlPhone    string   `json:"intl_phone"`
	Category     string   `json:"type"`
	Categories   []string `json:"sub_types"`
	Address      string   `json:"full_address"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	ReviewRating float64  `json:"rating"`
	ReviewCount  int      `json:"user_ratings_total"`
	PlaceID      string   `json:"google_id"`
	PlusCode     string   `json:"plus_code"`
	OpenHours    []string `json:"open_hours,omitempty"`
	Emails       []string `json:"emails,omitempty"`
}

// EntryFromDetails maps a details payload to an Entry. Absent optional
// fields stay zero-valued and render as empty CSV cells, so the output
// schema is uniform regardless of what the service returned.
func EntryFromDetails(d *PlaceDetails) *Entry {
	e := Entry{
		Title:        d.Name,
		WebSite:      d.Website,
		Phone:        d.FormattedPhone,
		IntlPhone:    d.InternationalPhone,
		Categories:   d.Types,
		Address:      d.FormattedAddress,
		Latitude:     d.Geometry.Location.Lat,
		Longitude:    d.Geometry.Location.Lng,
		ReviewRating: d.Rating,
		ReviewCount:  d.UserRatingsTotal,
		PlaceID:      d.PlaceID,
		PlusCode:     d.PlusCode.GlobalCode,
	}

	if len(d.Types) > 0 {
		e.Category = d.Types[0]
	}

	e.Link = d.URL
	if e.Link == "" && e.PlaceID != "" {
		e.Link = mapsLink(e.PlaceID)
	}

	if e.PlusCode == "" && (e.Latitude != 0 || e.Longitude != 0) {
		e.PlusCode = olc.Encode(e.Latitude, e.Longitude, 10)
	}

	if d.OpeningHours != nil {
		e.OpenHours = d.OpeningHours.WeekdayText
	}

	return &e
}

func mapsLink(placeID string) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=Google&query_place_id=%s", placeID)
}

var ErrMissingPlaceID = errors.New("entry has no place id")

func (e *Entry) Validate() error {
	if e.PlaceID == "" {
		return ErrMissingPlaceID
	}

	if e.Title == "" {
		return errors.New("entry has no business name")
	}

	return nil
}

func (e *Entry) CsvHeaders() []string {
	return []string{
		"google_place_url",
		"business_name",
		"business_website",
		"business_phone",
		"intl_phone",
		"type",
		"sub_types",
		"full_address",
		"latitude",
		"longitude",
		"rating",
		"user_ratings_total",
		"google_id",
	}
}

func (e *Entry) CsvRow() []string {
	return []string{
		e.Link,
		e.Title,
		e.WebSite,
		e.Phone,
		e.IntlPhone,
		e.Category,
		strings.Join(e.Categories, ","),
		e.Address,
		formatFloat(e.Latitude),
		formatFloat(e.Longitude),
		formatRating(e.ReviewRating),
		formatCount(e.ReviewCount),
		e.PlaceID,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// A zero rating means the service omitted the field (ratings range over
// [1.0, 5.0]); the cell stays empty rather than reporting a fake zero.
func formatRating(v float64) string {
	if v == 0 {
		return ""
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCount(v int) string {
	if v == 0 {
		return ""
	}

	return strconv.Itoa(v)
}
