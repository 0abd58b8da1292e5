package providers

import "github.com/geotrack/geotrack/geolib"

// Configs returns built-in provider configs in their default registry
// order. Each call returns fresh copies, so callers are free to modify
// them.
func Configs() []geolib.ProviderConfig {
	return []geolib.ProviderConfig{
		{
			Name:        NameIPAPI,
			URLTemplate: "https://ipapi.co/{ip}/json/",
			Fields: map[string]string{
				geolib.FieldIP:       "ip",
				geolib.FieldCity:     "city",
				geolib.FieldRegion:   "region",
				geolib.FieldCountry:  "country_name",
				geolib.FieldLat:      "latitude",
				geolib.FieldLon:      "longitude",
				geolib.FieldISP:      "org",
				geolib.FieldTimezone: "timezone",
			},
		},
		{
			Name:        NameIPInfo,
			URLTemplate: "https://ipinfo.io/{ip}/json",
			Fields: map[string]string{
				geolib.FieldIP:      "ip",
				geolib.FieldCity:    "city",
				geolib.FieldRegion:  "region",
				geolib.FieldCountry: "country",
				geolib.FieldLat:     "loc",
				geolib.FieldLon:     "loc",
				geolib.FieldISP:     "org",
			},
		},
		{
			Name:        NameGeolocation,
			URLTemplate: "http://ip-api.com/json/{ip}",
			Fields: map[string]string{
				geolib.FieldIP:       "query",
				geolib.FieldCity:     "city",
				geolib.FieldRegion:   "regionName",
				geolib.FieldCountry:  "country",
				geolib.FieldLat:      "lat",
				geolib.FieldLon:      "lon",
				geolib.FieldISP:      "isp",
				geolib.FieldTimezone: "timezone",
			},
		},
	}
}

// Config returns a built-in config by its name.
func Config(name string) (geolib.ProviderConfig, bool) {
	for _, v := range Configs() {
		if v.Name == name {
			return v, true
		}
	}

	return geolib.ProviderConfig{}, false
}
