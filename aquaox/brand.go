package aquaox

import "strings"

// GenericBrand is the canonical brand for blank input.
const GenericBrand = "Generic"

// UnknownAeratorType is used when an aerator identifier carries no type after the brand.
const UnknownAeratorType = "Unknown"

// brandAliases maps lower-cased, trimmed brand spellings seen in field data to the
// canonical brand. Read-only after package initialisation.
var brandAliases = map[string]string{
	"pentair":    "Pentair",
	"pentairr":   "Pentair",
	"beraqua":    "Beraqua",
	"beraqua1":   "Beraqua",
	"maof madam": "Maof Madam",
	"maofmadam":  "Maof Madam",
	"maof-madam": "Maof Madam",
	"cosumisa":   "Cosumisa",
	"cosumissa":  "Cosumisa",
	"pioneer":    "Pioneer",
	"pionner":    "Pioneer",
	"ecuasino":   "Ecuasino",
	"ecuacino":   "Ecuasino",
	"diva":       "Diva",
	"divva":      "Diva",
	"gps":        "GPS",
	"wangfa":     "WangFa",
	"wang fa":    "WangFa",
	"akva":       "AKVA",
	"xylem":      "Xylem",
	"newterra":   "Newterra",
	"tsurumi":    "TSURUMI",
	"oxyguard":   "OxyGuard",
	"oxy guard":  "OxyGuard",
	"linn":       "LINN",
	"lin":        "LINN",
	"hunan":      "Hunan",
	"sagar":      "Sagar",
	"sagr":       "Sagar",
	"hcp":        "HCP",
	"hcpp":       "HCP",
	"yiyuan":     "Yiyuan",
	"yiyuan1":    "Yiyuan",
	"generic":    GenericBrand,
}

// NormalizeBrand maps a free-text brand onto its canonical spelling.
// Blank input becomes "Generic". Brands missing from the alias table are returned
// exactly as given, without trimming or case changes.
func NormalizeBrand(brand string) string {
	key := strings.TrimSpace(strings.ToLower(brand))
	if key == "" {
		return GenericBrand
	}
	if canonical, ok := brandAliases[key]; ok {
		return canonical
	}
	return brand
}

// ParseAeratorID splits "<brand> <type>" at the first space.
// Without a space the whole identifier is the brand and the type is "Unknown".
func ParseAeratorID(id string) (brand, kind string) {
	brand, kind, found := strings.Cut(id, " ")
	if !found {
		return id, UnknownAeratorType
	}
	return brand, kind
}

// NormalizeAeratorID rewrites an aerator identifier with its canonical brand.
func NormalizeAeratorID(id string) string {
	brand, kind := ParseAeratorID(id)
	return NormalizeBrand(brand) + " " + kind
}
