package runner

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gosom/scrapemate"

	"github.com/canleads/places-scraper/deduper"
	"github.com/canleads/places-scraper/exiter"
	"github.com/canleads/places-scraper/gplaces"
	"github.com/canleads/places-scraper/queries"
)

// ParseGeoBias parses a "lat,lon" pair.
func ParseGeoBias(geo string) (lat, lon float64, err error) {
	parts := strings.Split(geo, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid geo coordinates: %s", geo)
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %w", err)
	}

	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %w", err)
	}

	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("invalid latitude: %f", lat)
	}

	if lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("invalid longitude: %f", lon)
	}

	return lat, lon, nil
}

// CreateSeedJobs builds one text-search job per query. Queries come from r
// when it is non-nil (one per line, optional `query #!# id` suffix),
// otherwise from the built-in province catalog selected by cfg.
func CreateSeedJobs(
	cfg *Config,
	r io.Reader,
	dedup deduper.Deduper,
	exitMonitor exiter.Exiter,
) (jobs []scrapemate.IJob, err error) {
	var lat, lon float64

	hasBias := cfg.GeoCoordinates != ""
	if hasBias {
		lat, lon, err = ParseGeoBias(cfg.GeoCoordinates)
		if err != nil {
			return nil, err
		}
	}

	opts := []gplaces.TextSearchJobOptions{}

	if dedup != nil {
		opts = append(opts, gplaces.WithDeduper(dedup))
	}

	if exitMonitor != nil {
		opts = append(opts, gplaces.WithExitMonitor(exitMonitor))
	}

	if cfg.Email {
		opts = append(opts, gplaces.WithEmailExtraction())
	}

	if cfg.PageSleep > 0 {
		opts = append(opts, gplaces.WithPageSleep(cfg.PageSleep))
	}

	if r != nil {
		scanner := bufio.NewScanner(r)

		for scanner.Scan() {
			query := strings.TrimSpace(scanner.Text())
			if query == "" || strings.HasPrefix(query, "#") {
				continue
			}

			var id string

			if before, after, ok := strings.Cut(query, "#!#"); ok {
				query = strings.TrimSpace(before)
				id = strings.TrimSpace(after)
			}

			params := gplaces.SearchParams{
				Query:      query,
				Lat:        lat,
				Lon:        lon,
				Radius:     cfg.Radius,
				HasBias:    hasBias,
				MaxResults: cfg.MaxPerQuery,
			}

			jobs = append(jobs, gplaces.NewTextSearchJob(id, cfg.APIKey, &params, opts...))
		}

		return jobs, scanner.Err()
	}

	items, err := queries.Enumerate(queries.Options{
		Province:             cfg.Province,
		MajorCitiesOnly:      cfg.MajorCitiesOnly,
		RuralOnly:            cfg.RuralOnly,
		SkipProvinceWide:     cfg.SkipProvinceWide,
		SkipLanguageVariants: cfg.SkipLanguageVariants,
		MaxPerQuery:          cfg.MaxPerQuery,
		Lat:                  lat,
		Lon:                  lon,
		Radius:               cfg.Radius,
		HasBias:              hasBias,
	})
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		params := gplaces.SearchParams{
			Query:      item.Text,
			Lat:        item.Lat,
			Lon:        item.Lon,
			Radius:     item.Radius,
			HasBias:    item.HasBias,
			MaxResults: item.MaxResults,
		}

		jobs = append(jobs, gplaces.NewTextSearchJob(item.ID, cfg.APIKey, &params, opts...))
	}

	return jobs, nil
}
