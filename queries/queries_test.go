package queries_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canleads/places-scraper/queries"
)

func Test_Enumerate_Deterministic(t *testing.T) {
	opts := queries.Options{Province: queries.ProvinceAll, MaxPerQuery: 180}

	first, err := queries.Enumerate(opts)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := queries.Enumerate(opts)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func Test_Enumerate_UniqueIDs(t *testing.T) {
	items, err := queries.Enumerate(queries.Options{Province: queries.ProvinceAll})
	require.NoError(t, err)

	seen := make(map[string]bool, len(items))

	for _, item := range items {
		require.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
}

func Test_Enumerate_ProvinceSubsets(t *testing.T) {
	alberta, err := queries.Enumerate(queries.Options{Province: queries.ProvinceAlberta})
	require.NoError(t, err)

	quebec, err := queries.Enumerate(queries.Options{Province: queries.ProvinceQuebec})
	require.NoError(t, err)

	all, err := queries.Enumerate(queries.Options{Province: queries.ProvinceAll})
	require.NoError(t, err)

	require.Len(t, all, len(alberta)+len(quebec))

	for _, item := range alberta {
		require.True(t, strings.HasPrefix(item.ID, "alberta-"), item.ID)
	}

	for _, item := range quebec {
		require.True(t, strings.HasPrefix(item.ID, "quebec-"), item.ID)
	}
}

func Test_Enumerate_UnknownProvince(t *testing.T) {
	_, err := queries.Enumerate(queries.Options{Province: "ontario"})
	require.Error(t, err)
}

func Test_Enumerate_ExclusiveTiers(t *testing.T) {
	_, err := queries.Enumerate(queries.Options{
		Province:        queries.ProvinceAlberta,
		MajorCitiesOnly: true,
		RuralOnly:       true,
	})
	require.Error(t, err)
}

func Test_Enumerate_TierFilters(t *testing.T) {
	tests := []struct {
		name    string
		opts    queries.Options
		want    []string
		exclude []string
	}{
		{
			name: "major cities only",
			opts: queries.Options{Province: queries.ProvinceAlberta, MajorCitiesOnly: true},
			want: []string{"-wide-", "-major-"},
			exclude: []string{
				"-medium-", "-rural-", "-lang-",
			},
		},
		{
			name:    "rural only",
			opts:    queries.Options{Province: queries.ProvinceAlberta, RuralOnly: true},
			want:    []string{"-wide-", "-rural-"},
			exclude: []string{"-major-", "-medium-", "-lang-"},
		},
		{
			name:    "skip province wide",
			opts:    queries.Options{Province: queries.ProvinceQuebec, SkipProvinceWide: true},
			want:    []string{"-major-", "-lang-"},
			exclude: []string{"-wide-"},
		},
		{
			name:    "skip language variants",
			opts:    queries.Options{Province: queries.ProvinceQuebec, SkipLanguageVariants: true},
			want:    []string{"-major-", "-rural-"},
			exclude: []string{"-lang-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := queries.Enumerate(tt.opts)
			require.NoError(t, err)
			require.NotEmpty(t, items)

			groups := make(map[string]bool)

			for _, item := range items {
				for _, marker := range append(tt.want, tt.exclude...) {
					if strings.Contains(item.ID, marker) {
						groups[marker] = true
					}
				}
			}

			for _, marker := range tt.want {
				require.True(t, groups[marker], "expected queries for %s", marker)
			}

			for _, marker := range tt.exclude {
				require.False(t, groups[marker], "unexpected queries for %s", marker)
			}
		})
	}
}

func Test_Enumerate_FrenchVariantsOnlyForQuebec(t *testing.T) {
	alberta, err := queries.Enumerate(queries.Options{Province: queries.ProvinceAlberta})
	require.NoError(t, err)

	for _, item := range alberta {
		require.NotContains(t, item.ID, "-lang-")
	}

	quebec, err := queries.Enumerate(queries.Options{Province: queries.ProvinceQuebec})
	require.NoError(t, err)

	var variants []string

	for _, item := range quebec {
		if strings.Contains(item.ID, "-lang-") {
			variants = append(variants, item.Text)
		}
	}

	require.NotEmpty(t, variants)
	require.Contains(t, variants, "service de taxi à Montréal, Québec, Canada")
}

func Test_Enumerate_CarriesOptions(t *testing.T) {
	items, err := queries.Enumerate(queries.Options{
		Province:    queries.ProvinceAlberta,
		MaxPerQuery: 60,
		Lat:         53.5461,
		Lon:         -113.4938,
		Radius:      50000,
		HasBias:     true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, items)

	for _, item := range items {
		require.Equal(t, 60, item.MaxResults)
		require.True(t, item.HasBias)
		require.Equal(t, 53.5461, item.Lat)
	}
}
