package gplaces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gosom/scrapemate"

	"github.com/canleads/places-scraper/exiter"
)

type PlaceDetailJobOptions func(*PlaceDetailJob)

// PlaceDetailJob expands an admitted place id into the full business
// record. It runs at most once per id per run; the deduper guarantees
// that before the job is ever created.
type PlaceDetailJob struct {
	scrapemate.Job

	PlaceID      string
	ExtractEmail bool
	ExitMonitor  exiter.Exiter

	emitResult bool
}

func NewPlaceDetailJob(parentID, apiKey, placeID string, opts ...PlaceDetailJobOptions) *PlaceDetailJob {
	const defaultMaxRetries = 3

	job := PlaceDetailJob{
		Job: scrapemate.Job{
			ID:       uuid.New().String(),
			ParentID: parentID,
			Method:   http.MethodGet,
			URL:      detailsURL,
			URLParams: map[string]string{
				"place_id": placeID,
				"fields":   detailFields,
				"key":      apiKey,
			},
			MaxRetries:    defaultMaxRetries,
			Priority:      scrapemate.PriorityMedium,
			CheckResponse: acceptPlacesResponse,
		},
		PlaceID:    placeID,
		emitResult: true,
	}

	for _, opt := range opts {
		opt(&job)
	}

	return &job
}

func WithDetailExitMonitor(e exiter.Exiter) PlaceDetailJobOptions {
	return func(j *PlaceDetailJob) {
		j.ExitMonitor = e
	}
}

func WithDetailEmailExtraction() PlaceDetailJobOptions {
	return func(j *PlaceDetailJob) {
		j.ExtractEmail = true
	}
}

func (j *PlaceDetailJob) UseInResults() bool {
	return j.emitResult
}

func (j *PlaceDetailJob) Process(ctx context.Context, resp *scrapemate.Response) (any, []scrapemate.IJob, error) {
	defer func() {
		resp.Document = nil
		resp.Body = nil
		resp.Meta = nil
	}()

	var details DetailsResponse

	if err := json.Unmarshal(resp.Body, &details); err != nil {
		j.completed()

		return nil, nil, fmt.Errorf("malformed details response for %s: %w", j.PlaceID, err)
	}

	if details.Status != StatusOK {
		j.completed()

		return nil, nil, fmt.Errorf("details for %s failed: %s %s", j.PlaceID, details.Status, details.ErrorMessage)
	}

	entry := EntryFromDetails(&details.Result)
	entry.ID = j.ParentID

	if entry.PlaceID == "" {
		entry.PlaceID = j.PlaceID
	}

	if err := entry.Validate(); err != nil {
		j.completed()

		return nil, nil, fmt.Errorf("invalid record for %s: %w", j.PlaceID, err)
	}

	if j.ExtractEmail && isCrawlableWebsite(entry.WebSite) {
		emailJob := NewEmailJob(j.ParentID, entry, WithEmailJobExitMonitor(j.ExitMonitor))

		// The email job carries the entry to the writers; suppressing this
		// job's own result keeps it one output row per place.
		j.emitResult = false

		return nil, []scrapemate.IJob{emailJob}, nil
	}

	j.completed()

	return entry, nil, nil
}

func (j *PlaceDetailJob) completed() {
	if j.ExitMonitor != nil {
		j.ExitMonitor.IncrPlacesCompleted(1)
	}
}
