package providers

const (
	// Identifier for ipapi.co.
	NameIPAPI = "ipapi"

	// Identifier for ipinfo.io.
	NameIPInfo = "ipinfo"

	// Identifier for ip-api.com.
	NameGeolocation = "geolocation"

	// Identifier for MaxMind GeoLite2 City database.
	NameMaxmindLite = "maxmind_lite"
)
