package placesapp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gosom/scrapemate"
	"github.com/stretchr/testify/require"

	"github.com/canleads/places-scraper/gplaces"
	"github.com/canleads/places-scraper/placesapp"
)

// stubFetcher serves canned payloads per job type and fails every request
// of one poisoned query, counting the attempts each query receives.
type stubFetcher struct {
	failQuery string

	mu       sync.Mutex
	attempts map[string]int
}

func (f *stubFetcher) Close() error { return nil }

func (f *stubFetcher) Fetch(_ context.Context, job scrapemate.IJob) scrapemate.Response {
	var resp scrapemate.Response

	switch j := job.(type) {
	case *gplaces.TextSearchJob:
		query := j.URLParams["query"]

		f.mu.Lock()
		f.attempts[query]++
		f.mu.Unlock()

		if query == f.failQuery {
			resp.Error = errors.New("connection reset by peer")

			return resp
		}

		resp.StatusCode = http.StatusOK
		resp.Body = marshal(gplaces.SearchResponse{
			Status: gplaces.StatusOK,
			Results: []gplaces.SearchResult{
				{PlaceID: "p-1", Name: "Taxi Nord"},
				{PlaceID: "p-2", Name: "Taxi Sud"},
			},
		})
	case *gplaces.PlaceDetailJob:
		resp.StatusCode = http.StatusOK
		resp.Body = marshal(gplaces.DetailsResponse{
			Status: gplaces.StatusOK,
			Result: gplaces.PlaceDetails{
				PlaceID: j.PlaceID,
				Name:    "Business " + j.PlaceID,
			},
		})
	default:
		resp.Error = errors.New("unexpected job type")
	}

	return resp
}

func (f *stubFetcher) attemptsFor(query string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.attempts[query]
}

func marshal(v any) []byte {
	body, _ := json.Marshal(v)

	return body
}

type collectWriter struct {
	mu      sync.Mutex
	entries []*gplaces.Entry
}

func (w *collectWriter) Run(_ context.Context, in <-chan scrapemate.Result) error {
	for result := range in {
		entry, ok := result.Data.(*gplaces.Entry)
		if !ok {
			return errors.New("unexpected result payload")
		}

		w.mu.Lock()
		w.entries = append(w.entries, entry)
		w.mu.Unlock()
	}

	return nil
}

func (w *collectWriter) placeIDs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ids []string
	for _, entry := range w.entries {
		ids = append(ids, entry.PlaceID)
	}

	return ids
}

func Test_App_AbandonsExhaustedQuery(t *testing.T) {
	fetcher := &stubFetcher{
		failQuery: "taxi service in Atlantis",
		attempts:  map[string]int{},
	}
	writer := &collectWriter{}

	app, err := placesapp.New(&placesapp.Config{
		Writers:          []scrapemate.ResultWriter{writer},
		Fetcher:          fetcher,
		Concurrency:      2,
		ExitOnInactivity: 2 * time.Second,
	})
	require.NoError(t, err)

	seeds := []scrapemate.IJob{
		gplaces.NewTextSearchJob("seed-1", "k", &gplaces.SearchParams{Query: "taxi service in Calgary"}),
		gplaces.NewTextSearchJob("seed-2", "k", &gplaces.SearchParams{Query: "taxi service in Atlantis"}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, app.Start(ctx, seeds...))

	// One attempt plus the full retry budget, then the query is abandoned
	// without tearing the run down.
	require.Equal(t, 4, fetcher.attemptsFor("taxi service in Atlantis"))
	require.Equal(t, 1, fetcher.attemptsFor("taxi service in Calgary"))

	// Every admitted place from the surviving query made it to the
	// writers; the dead query contributed no rows.
	require.ElementsMatch(t, []string{"p-1", "p-2"}, writer.placeIDs())
}
