package permit

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var stateCodes = map[string]string{
	"alabama":              "AL",
	"alaska":               "AK",
	"arizona":              "AZ",
	"arkansas":             "AR",
	"california":           "CA",
	"colorado":             "CO",
	"connecticut":          "CT",
	"delaware":             "DE",
	"district of columbia": "DC",
	"florida":              "FL",
	"georgia":              "GA",
	"hawaii":               "HI",
	"idaho":                "ID",
	"illinois":             "IL",
	"indiana":              "IN",
	"iowa":                 "IA",
	"kansas":               "KS",
	"kentucky":             "KY",
	"louisiana":            "LA",
	"maine":                "ME",
	"maryland":             "MD",
	"massachusetts":        "MA",
	"michigan":             "MI",
	"minnesota":            "MN",
	"mississippi":          "MS",
	"missouri":             "MO",
	"montana":              "MT",
	"nebraska":             "NE",
	"nevada":               "NV",
	"new hampshire":        "NH",
	"new jersey":           "NJ",
	"new mexico":           "NM",
	"new york":             "NY",
	"north carolina":       "NC",
	"north dakota":         "ND",
	"ohio":                 "OH",
	"oklahoma":             "OK",
	"oregon":               "OR",
	"pennsylvania":         "PA",
	"rhode island":         "RI",
	"south carolina":       "SC",
	"south dakota":         "SD",
	"tennessee":            "TN",
	"texas":                "TX",
	"utah":                 "UT",
	"vermont":              "VT",
	"virginia":             "VA",
	"washington":           "WA",
	"west virginia":        "WV",
	"wisconsin":            "WI",
	"wyoming":              "WY",
}

var stateNames = func() map[string]string {
	title := cases.Title(language.AmericanEnglish)
	m := make(map[string]string, len(stateCodes))
	for name, code := range stateCodes {
		m[code] = title.String(name)
	}
	m["DC"] = "District of Columbia"
	return m
}()

// StateCode resolves a geocoder short name or full state name to its
// two-letter code.
func StateCode(shortName, longName string) (string, bool) {
	if s := strings.TrimSpace(shortName); len(s) == 2 {
		return strings.ToUpper(s), true
	}
	for _, n := range []string{longName, shortName} {
		if code, ok := stateCodes[strings.ToLower(strings.TrimSpace(n))]; ok {
			return code, true
		}
	}
	return "", false
}

func StateName(code string) string {
	return stateNames[strings.ToUpper(code)]
}
