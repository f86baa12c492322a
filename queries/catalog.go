package queries

// The catalog mirrors the coverage lists the extraction was designed
// around: transportation-service keywords crossed with Canadian cities
// and regions, grouped by tier. This is configuration data, not logic.

type provinceCatalog struct {
	name             string
	provinceWide     []string
	majorCities      []string
	mediumCities     []string
	rural            []string
	languageVariants []string
}

// catalog order is fixed: alberta first, quebec second. selectProvinces
// relies on these positions.
var catalog = []provinceCatalog{alberta, quebec}

func expand(terms, places []string, suffix string) []string {
	ans := make([]string, 0, len(terms)*len(places))

	for _, place := range places {
		for _, term := range terms {
			ans = append(ans, term+" in "+place+", "+suffix)
		}
	}

	return ans
}

func expandFrench(terms, places []string, suffix string) []string {
	ans := make([]string, 0, len(terms)*len(places))

	for _, place := range places {
		for _, term := range terms {
			ans = append(ans, term+" à "+place+", "+suffix)
		}
	}

	return ans
}

var (
	coreTerms     = []string{"limousine service", "taxi service"}
	extendedTerms = []string{
		"limousine service",
		"taxi service",
		"chauffeur service",
		"transportation service",
		"car service",
		"private driver",
		"airport shuttle",
	}
	taxiOnly = []string{"taxi service"}
)

var alberta = provinceCatalog{
	name: ProvinceAlberta,
	provinceWide: []string{
		"limousine service in Alberta, Canada",
		"taxi service in Alberta, Canada",
		"transportation service in Alberta, Canada",
	},
	majorCities: concat(
		expand(extendedTerms, []string{"Calgary", "Edmonton"}, "Alberta, Canada"),
		expand(coreTerms, []string{
			"Red Deer", "Lethbridge", "Medicine Hat", "Fort McMurray",
		}, "Alberta, Canada"),
	),
	mediumCities: expand(coreTerms, []string{
		"Grande Prairie", "Airdrie", "Spruce Grove", "Okotoks",
		"Lloydminster", "Camrose", "Wetaskiwin", "Leduc", "Cochrane",
		"Chestermere", "Beaumont", "Fort Saskatchewan", "St. Albert",
		"Sherwood Park", "Sylvan Lake", "Canmore", "Banff", "Jasper",
	}, "Alberta, Canada"),
	rural: concat(
		expand(taxiOnly, []string{
			"Fort Chipewyan", "High Level", "Peace River", "Slave Lake",
			"Athabasca", "Cold Lake", "Bonnyville", "Lac La Biche",
			"Innisfail", "Olds", "Didsbury", "Sundre",
			"Rocky Mountain House", "Stettler", "Drumheller", "Hanna",
			"Pincher Creek", "Cardston", "Taber", "Coaldale",
			"Vegreville", "Vermilion", "Wainwright", "Provost",
			"High River", "Nanton", "Claresholm", "Strathmore",
			"Whitecourt", "Edson", "Hinton", "Fox Creek",
		}, "Alberta, Canada"),
		[]string{
			"taxi service in Alberta Rockies, Canada",
			"limousine service in Alberta Rockies, Canada",
			"taxi service in Wood Buffalo, Alberta, Canada",
			"taxi service in Mackenzie County, Alberta, Canada",
		},
	),
	// Alberta has no second-language query set.
	languageVariants: nil,
}

var quebec = provinceCatalog{
	name: ProvinceQuebec,
	provinceWide: []string{
		"limousine service in Quebec, Canada",
		"taxi service in Quebec, Canada",
		"transportation service in Quebec, Canada",
	},
	majorCities: concat(
		expand(extendedTerms, []string{"Montreal"}, "Quebec, Canada"),
		expand(coreTerms, []string{
			"Quebec City", "Laval", "Gatineau", "Longueuil", "Sherbrooke",
		}, "Quebec, Canada"),
	),
	mediumCities: expand(coreTerms, []string{
		"Trois-Rivières", "Saguenay", "Lévis", "Terrebonne", "Brossard",
		"Repentigny", "Drummondville", "Saint-Jérôme", "Granby",
		"Blainville", "Saint-Hyacinthe", "Shawinigan", "Joliette",
		"Victoriaville", "Rimouski", "Sorel-Tracy", "Val-d'Or",
	}, "Quebec, Canada"),
	rural: expand(taxiOnly, []string{
		"Rouyn-Noranda", "Sept-Îles", "Baie-Comeau", "Alma",
		"Thetford Mines", "Matane", "Gaspé", "Amos", "La Tuque",
		"Mont-Laurier", "Rivière-du-Loup", "Montmagny", "Lachute",
		"Cowansville", "Magog", "Roberval", "Dolbeau-Mistassini",
		"Chibougamau", "Percé", "New Richmond",
	}, "Quebec, Canada"),
	languageVariants: concat(
		expandFrench([]string{
			"service de limousine",
			"service de taxi",
			"transport avec chauffeur",
		}, []string{"Montréal", "Québec", "Laval", "Gatineau"}, "Québec, Canada"),
		expandFrench([]string{"service de taxi"}, []string{
			"Sherbrooke", "Trois-Rivières", "Saguenay", "Rimouski",
		}, "Québec, Canada"),
	),
}

func concat(lists ...[]string) []string {
	var ans []string

	for _, l := range lists {
		ans = append(ans, l...)
	}

	return ans
}
