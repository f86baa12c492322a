package gplaces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gosom/scrapemate"

	"github.com/canleads/places-scraper/deduper"
	"github.com/canleads/places-scraper/exiter"
)

// maxSearchPages caps pagination per query. The service never serves more
// than ~60 text-search results (3 pages of 20), even when it keeps
// returning continuation tokens.
const maxSearchPages = 3

type SearchParams struct {
	Query string

	// Optional location bias.
	Lat     float64
	Lon     float64
	Radius  float64
	HasBias bool

	// MaxResults caps the stubs consumed for this query across all its
	// pages. Zero means no cap beyond the service's own page limit.
	MaxResults int
}

type TextSearchJobOptions func(*TextSearchJob)

// TextSearchJob fetches one page of text-search results. Newly seen place
// ids fan out into PlaceDetailJob children; a continuation token fans out
// into the next page of the same query.
type TextSearchJob struct {
	scrapemate.Job

	SeedID       string
	Deduper      deduper.Deduper
	ExitMonitor  exiter.Exiter
	ExtractEmail bool
	PageSleep    time.Duration

	params    *SearchParams
	apiKey    string
	page      int
	fetched   int
	notBefore time.Time
}

func NewTextSearchJob(seedID, apiKey string, params *SearchParams, opts ...TextSearchJobOptions) *TextSearchJob {
	const defaultMaxRetries = 3

	if seedID == "" {
		seedID = uuid.New().String()
	}

	urlParams := map[string]string{
		"query": params.Query,
		"key":   apiKey,
	}

	if params.HasBias {
		urlParams["location"] = fmt.Sprintf("%f,%f", params.Lat, params.Lon)
		urlParams["radius"] = fmt.Sprintf("%.0f", params.Radius)
	}

	job := TextSearchJob{
		Job: scrapemate.Job{
			ID:            uuid.New().String(),
			Method:        http.MethodGet,
			URL:           textSearchURL,
			URLParams:     urlParams,
			MaxRetries:    defaultMaxRetries,
			Priority:      scrapemate.PriorityHigh,
			CheckResponse: acceptPlacesResponse,
		},
		SeedID: seedID,
		params: params,
		apiKey: apiKey,
		page:   1,
	}

	for _, opt := range opts {
		opt(&job)
	}

	return &job
}

func WithDeduper(d deduper.Deduper) TextSearchJobOptions {
	return func(j *TextSearchJob) {
		j.Deduper = d
	}
}

func WithExitMonitor(e exiter.Exiter) TextSearchJobOptions {
	return func(j *TextSearchJob) {
		j.ExitMonitor = e
	}
}

func WithEmailExtraction() TextSearchJobOptions {
	return func(j *TextSearchJob) {
		j.ExtractEmail = true
	}
}

func WithPageSleep(d time.Duration) TextSearchJobOptions {
	return func(j *TextSearchJob) {
		j.PageSleep = d
	}
}

// ActivationTime tells the fetcher when the carried continuation token
// becomes usable. The seed page has no token and no delay.
func (j *TextSearchJob) ActivationTime() time.Time {
	return j.notBefore
}

func (j *TextSearchJob) UseInResults() bool {
	return false
}

func (j *TextSearchJob) Process(ctx context.Context, resp *scrapemate.Response) (any, []scrapemate.IJob, error) {
	defer func() {
		resp.Document = nil
		resp.Body = nil
		resp.Meta = nil
	}()

	log := scrapemate.GetLoggerFromContext(ctx)

	paginated := false

	defer func() {
		if j.ExitMonitor != nil && !paginated {
			j.ExitMonitor.IncrSeedCompleted(1)
		}
	}()

	var page SearchResponse

	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, nil, fmt.Errorf("malformed text search response for %q: %w", j.params.Query, err)
	}

	switch page.Status {
	case StatusOK, StatusZeroResults:
	default:
		return nil, nil, fmt.Errorf("text search for %q failed: %s %s", j.params.Query, page.Status, page.ErrorMessage)
	}

	var next []scrapemate.IJob

	capped := false

	for i := range page.Results {
		if j.params.MaxResults > 0 && j.fetched >= j.params.MaxResults {
			capped = true

			break
		}

		j.fetched++

		stub := &page.Results[i]
		if stub.PlaceID == "" {
			continue
		}

		if j.Deduper != nil && !j.Deduper.AddIfNotExists(ctx, stub.PlaceID) {
			continue
		}

		opts := []PlaceDetailJobOptions{}

		if j.ExitMonitor != nil {
			opts = append(opts, WithDetailExitMonitor(j.ExitMonitor))
		}

		if j.ExtractEmail {
			opts = append(opts, WithDetailEmailExtraction())
		}

		next = append(next, NewPlaceDetailJob(j.SeedID, j.apiKey, stub.PlaceID, opts...))
	}

	if j.params.MaxResults > 0 && j.fetched >= j.params.MaxResults {
		capped = true
	}

	newPlaces := len(next)

	if j.ExitMonitor != nil {
		j.ExitMonitor.IncrPlacesFound(newPlaces)
	}

	if page.NextPageToken != "" && !capped && j.page < maxSearchPages {
		next = append(next, j.nextPage(page.NextPageToken))
		paginated = true
	}

	log.Info(fmt.Sprintf("%d new places on page %d of %q", newPlaces, j.page, j.params.Query))

	return nil, next, nil
}

// nextPage builds the follow-up job for a continuation token. The token
// needs a short warm-up before the service accepts it, carried as the
// job's activation time.
func (j *TextSearchJob) nextPage(token string) *TextSearchJob {
	next := TextSearchJob{
		Job: scrapemate.Job{
			ID:     uuid.New().String(),
			Method: http.MethodGet,
			URL:    textSearchURL,
			URLParams: map[string]string{
				"pagetoken": token,
				"key":       j.apiKey,
			},
			MaxRetries:    j.MaxRetries,
			Priority:      scrapemate.PriorityHigh,
			CheckResponse: acceptPlacesResponse,
		},
		SeedID:       j.SeedID,
		Deduper:      j.Deduper,
		ExitMonitor:  j.ExitMonitor,
		ExtractEmail: j.ExtractEmail,
		PageSleep:    j.PageSleep,
		params:       j.params,
		apiKey:       j.apiKey,
		page:         j.page + 1,
		fetched:      j.fetched,
		notBefore:    time.Now().Add(j.PageSleep),
	}

	return &next
}
