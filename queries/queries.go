// Package queries enumerates the text-search queries a run submits. The
// catalog is static configuration data; Enumerate is a pure function over
// it, so two runs with the same options always produce the same ordered
// query list.
package queries

import (
	"fmt"
)

const (
	ProvinceAlberta = "alberta"
	ProvinceQuebec  = "quebec"
	ProvinceAll     = "all"
)

// SearchQuery is one unit of work for the paginator.
type SearchQuery struct {
	ID   string
	Text string

	// Optional location bias.
	Lat     float64
	Lon     float64
	Radius  float64
	HasBias bool

	// MaxResults caps the stubs consumed for this query.
	MaxResults int
}

type Options struct {
	// Province selects a catalog subset: alberta, quebec or all.
	Province string

	MajorCitiesOnly      bool
	RuralOnly            bool
	SkipProvinceWide     bool
	SkipLanguageVariants bool

	MaxPerQuery int

	// Location bias applied to every query.
	Lat     float64
	Lon     float64
	Radius  float64
	HasBias bool
}

type group struct {
	name  string
	texts []string
}

// Enumerate yields the ordered query sequence for opts: province-wide
// sweeps first, then major cities, medium cities, rural areas and finally
// language variants, per province in catalog order.
func Enumerate(opts Options) ([]SearchQuery, error) {
	provinces, err := selectProvinces(opts.Province)
	if err != nil {
		return nil, err
	}

	if opts.MajorCitiesOnly && opts.RuralOnly {
		return nil, fmt.Errorf("major-cities-only and rural-only are mutually exclusive")
	}

	var ans []SearchQuery

	for _, p := range provinces {
		for _, g := range selectGroups(p, opts) {
			for i, text := range g.texts {
				ans = append(ans, SearchQuery{
					ID:         fmt.Sprintf("%s-%s-%03d", p.name, g.name, i+1),
					Text:       text,
					Lat:        opts.Lat,
					Lon:        opts.Lon,
					Radius:     opts.Radius,
					HasBias:    opts.HasBias,
					MaxResults: opts.MaxPerQuery,
				})
			}
		}
	}

	return ans, nil
}

func selectGroups(p provinceCatalog, opts Options) []group {
	var groups []group

	if !opts.SkipProvinceWide {
		groups = append(groups, group{"wide", p.provinceWide})
	}

	switch {
	case opts.MajorCitiesOnly:
		groups = append(groups, group{"major", p.majorCities})
	case opts.RuralOnly:
		groups = append(groups, group{"rural", p.rural})
	default:
		groups = append(groups,
			group{"major", p.majorCities},
			group{"medium", p.mediumCities},
			group{"rural", p.rural},
		)

		if !opts.SkipLanguageVariants {
			groups = append(groups, group{"lang", p.languageVariants})
		}
	}

	return groups
}

func selectProvinces(name string) ([]provinceCatalog, error) {
	switch name {
	case "", ProvinceAll:
		return catalog, nil
	case ProvinceAlberta:
		return catalog[:1], nil
	case ProvinceQuebec:
		return catalog[1:], nil
	default:
		return nil, fmt.Errorf("unknown province: %s", name)
	}
}
