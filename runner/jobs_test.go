package runner_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/canleads/places-scraper/gplaces"
	"github.com/canleads/places-scraper/queries"
	"github.com/canleads/places-scraper/runner"
)

func Test_ParseGeoBias(t *testing.T) {
	tests := []struct {
		name    string
		geo     string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{name: "valid", geo: "53.5461,-113.4938", lat: 53.5461, lon: -113.4938},
		{name: "valid with spaces", geo: "45.5017, -73.5673", lat: 45.5017, lon: -73.5673},
		{name: "missing part", geo: "53.5461", wantErr: true},
		{name: "not a number", geo: "north,west", wantErr: true},
		{name: "latitude out of range", geo: "91,0", wantErr: true},
		{name: "longitude out of range", geo: "0,181", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, err := runner.ParseGeoBias(tt.geo)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.lat, lat)
			require.Equal(t, tt.lon, lon)
		})
	}
}

func Test_CreateSeedJobs_FromReader(t *testing.T) {
	cfg := &runner.Config{
		APIKey:      "test-key",
		MaxPerQuery: 60,
		PageSleep:   2 * time.Second,
	}

	input := strings.NewReader(strings.Join([]string{
		"taxi service in Calgary, Alberta, Canada #!# ab-custom-001",
		"",
		"# a comment line",
		"limousine service in Laval, Quebec, Canada",
	}, "\n"))

	jobs, err := runner.CreateSeedJobs(cfg, input, nil, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	first, ok := jobs[0].(*gplaces.TextSearchJob)
	require.True(t, ok)
	require.Equal(t, "ab-custom-001", first.SeedID)
	require.Equal(t, "taxi service in Calgary, Alberta, Canada", first.URLParams["query"])
	require.Equal(t, "test-key", first.URLParams["key"])

	second, ok := jobs[1].(*gplaces.TextSearchJob)
	require.True(t, ok)
	require.NotEmpty(t, second.SeedID)
}

func Test_CreateSeedJobs_FromCatalog(t *testing.T) {
	cfg := &runner.Config{
		APIKey:          "test-key",
		Province:        queries.ProvinceAlberta,
		MajorCitiesOnly: true,
		MaxPerQuery:     180,
	}

	jobs, err := runner.CreateSeedJobs(cfg, nil, nil, nil)
	require.NoError(t, err)

	items, err := queries.Enumerate(queries.Options{
		Province:        queries.ProvinceAlberta,
		MajorCitiesOnly: true,
		MaxPerQuery:     180,
	})
	require.NoError(t, err)
	require.Len(t, jobs, len(items))

	first, ok := jobs[0].(*gplaces.TextSearchJob)
	require.True(t, ok)
	require.Equal(t, items[0].ID, first.SeedID)
	require.Equal(t, items[0].Text, first.URLParams["query"])
}

func Test_CreateSeedJobs_InvalidGeo(t *testing.T) {
	cfg := &runner.Config{
		APIKey:         "test-key",
		GeoCoordinates: "not-coordinates",
	}

	_, err := runner.CreateSeedJobs(cfg, strings.NewReader("taxi service in Calgary"), nil, nil)
	require.Error(t, err)
}

func Test_CreateSeedJobs_GeoBias(t *testing.T) {
	cfg := &runner.Config{
		APIKey:         "test-key",
		GeoCoordinates: "51.0447,-114.0719",
		Radius:         25000,
	}

	jobs, err := runner.CreateSeedJobs(cfg, strings.NewReader("taxi service near me"), nil, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job, ok := jobs[0].(*gplaces.TextSearchJob)
	require.True(t, ok)
	require.Equal(t, "51.044700,-114.071900", job.URLParams["location"])
	require.Equal(t, "25000", job.URLParams["radius"])
}
