package gplaces_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/gosom/scrapemate"
	"github.com/stretchr/testify/require"

	"github.com/canleads/places-scraper/gplaces"
)

func detailsBody(t *testing.T) []byte {
	t.Helper()

	raw, err := os.ReadFile("testdata/details_response.json")
	require.NoError(t, err)

	return raw
}

func Test_PlaceDetailJob_Process(t *testing.T) {
	monitor := &fakeExiter{}

	job := gplaces.NewPlaceDetailJob("seed-1", "k", "ChIJDbdkHFQayUwR7-8fITgxTmU",
		gplaces.WithDetailExitMonitor(monitor))

	require.True(t, job.UseInResults())
	require.Equal(t, "ChIJDbdkHFQayUwR7-8fITgxTmU", job.URLParams["place_id"])
	require.NotEmpty(t, job.URLParams["fields"])

	data, next, err := job.Process(context.Background(), &scrapemate.Response{Body: detailsBody(t)})
	require.NoError(t, err)
	require.Empty(t, next)

	entry, ok := data.(*gplaces.Entry)
	require.True(t, ok)
	require.Equal(t, "seed-1", entry.ID)
	require.Equal(t, "Taxi Coop Montréal", entry.Title)
	require.Equal(t, 1, monitor.placesCompleted)
}

func Test_PlaceDetailJob_Process_EmailChaining(t *testing.T) {
	monitor := &fakeExiter{}

	job := gplaces.NewPlaceDetailJob("seed-1", "k", "ChIJDbdkHFQayUwR7-8fITgxTmU",
		gplaces.WithDetailExitMonitor(monitor),
		gplaces.WithDetailEmailExtraction())

	require.True(t, job.UseInResults())

	data, next, err := job.Process(context.Background(), &scrapemate.Response{Body: detailsBody(t)})
	require.NoError(t, err)

	// The email job carries the entry; the detail job emits nothing itself,
	// not even a nil row for the writers.
	require.Nil(t, data)
	require.False(t, job.UseInResults())
	require.Len(t, next, 1)

	emailJob, ok := next[0].(*gplaces.EmailExtractJob)
	require.True(t, ok)
	require.Equal(t, "https://www.taxicoopmontreal.com/", emailJob.GetURL())
	require.Equal(t, "Taxi Coop Montréal", emailJob.Entry.Title)

	// Completion is reported by the email job, not here.
	require.Equal(t, 0, monitor.placesCompleted)
}

func Test_PlaceDetailJob_Process_UncrawlableWebsite(t *testing.T) {
	var resp gplaces.DetailsResponse

	require.NoError(t, json.Unmarshal(detailsBody(t), &resp))

	resp.Result.Website = "https://www.facebook.com/taxicoop"

	body, err := json.Marshal(resp)
	require.NoError(t, err)

	job := gplaces.NewPlaceDetailJob("seed-1", "k", "ChIJDbdkHFQayUwR7-8fITgxTmU",
		gplaces.WithDetailEmailExtraction())

	data, next, err := job.Process(context.Background(), &scrapemate.Response{Body: body})
	require.NoError(t, err)
	require.Empty(t, next)
	require.IsType(t, &gplaces.Entry{}, data)
	require.True(t, job.UseInResults())
}

func Test_PlaceDetailJob_Process_FailureStatus(t *testing.T) {
	monitor := &fakeExiter{}

	job := gplaces.NewPlaceDetailJob("seed-1", "k", "ChIJgone",
		gplaces.WithDetailExitMonitor(monitor))

	body, err := json.Marshal(gplaces.DetailsResponse{Status: gplaces.StatusNotFound})
	require.NoError(t, err)

	data, next, err := job.Process(context.Background(), &scrapemate.Response{Body: body})
	require.Error(t, err)
	require.Nil(t, data)
	require.Empty(t, next)

	// A failed place still counts as completed so the run can finish.
	require.Equal(t, 1, monitor.placesCompleted)
}

func Test_PlaceDetailJob_Process_Malformed(t *testing.T) {
	job := gplaces.NewPlaceDetailJob("seed-1", "k", "ChIJx")

	data, next, err := job.Process(context.Background(), &scrapemate.Response{Body: []byte("<html>not json</html>")})
	require.Error(t, err)
	require.Nil(t, data)
	require.Empty(t, next)
}
