package report

import (
	"strings"

	"github.com/pariz/gountries"
)

var countryQuery = gountries.New()

// normalizeAlpha2 uppercases a code and maps legacy or placeholder
// codes some providers still return.
func normalizeAlpha2(alpha2 string) string {
	alpha2 = strings.ToUpper(alpha2)

	switch alpha2 {
	case "ZZ", "AP", "EU":
		return ""
	case "YU":
		return "CS"
	case "FX":
		return "FR"
	case "UK":
		return "GB"
	default:
		return alpha2
	}
}

// CountryName returns a common name of the country if value is ISO3166
// alpha-2 or alpha-3 code. Otherwise value is returned as is: most of
// providers already give a name.
func CountryName(value string) string {
	value = strings.TrimSpace(value)

	switch len(value) {
	case 2:
		if country, ok := countryQuery.Countries[normalizeAlpha2(value)]; ok {
			return country.Name.Common
		}
	case 3:
		alpha2 := countryQuery.Alpha3ToAlpha2[strings.ToUpper(value)]
		if country, ok := countryQuery.Countries[alpha2]; ok {
			return country.Name.Common
		}
	}

	return value
}
