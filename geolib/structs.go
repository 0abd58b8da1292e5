package geolib

// Normalized keys of the provider field mapping table.
const (
	FieldIP       = "ip"
	FieldCity     = "city"
	FieldRegion   = "region"
	FieldCountry  = "country"
	FieldLat      = "lat"
	FieldLon      = "lon"
	FieldISP      = "isp"
	FieldTimezone = "timezone"
)

// NormalizedFields lists all keys which can be mapped by a
// ProviderConfig. Order is stable and used to walk mapping tables.
var NormalizedFields = []string{
	FieldIP,
	FieldCity,
	FieldRegion,
	FieldCountry,
	FieldLat,
	FieldLon,
	FieldISP,
	FieldTimezone,
}

// Accuracy is a coarse confidence label of the reconciled result.
type Accuracy string

const (
	// AccuracyHigh means that at least 2 providers have reported
	// coordinates and they were averaged.
	AccuracyHigh Accuracy = "high"

	// AccuracyMedium means that a result is backed by a single
	// provider.
	AccuracyMedium Accuracy = "medium"
)

// TargetType tells what kind of target was tracked.
type TargetType string

const (
	TargetIP     TargetType = "ip"
	TargetSelfIP TargetType = "self_ip"
)

// NormalizedRecord is a response of the provider translated into the
// common schema. IP and Source are always set, the rest is optional.
type NormalizedRecord struct {
	IP       string   `json:"ip"`
	Source   string   `json:"source"`
	City     string   `json:"city,omitempty"`
	Region   string   `json:"region,omitempty"`
	Country  string   `json:"country,omitempty"`
	ISP      string   `json:"isp,omitempty"`
	Timezone string   `json:"timezone,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
}

// HasCoordinates returns true if both latitude and longitude are set.
func (n *NormalizedRecord) HasCoordinates() bool {
	return n.Lat != nil && n.Lon != nil
}

// Coordinates returns latitude and longitude if both are present.
func (n *NormalizedRecord) Coordinates() (float64, float64, bool) {
	if !n.HasCoordinates() {
		return 0, 0, false
	}

	return *n.Lat, *n.Lon, true
}

func (n NormalizedRecord) clone() NormalizedRecord {
	if n.Lat != nil {
		n.Lat = floatRef(*n.Lat)
	}

	if n.Lon != nil {
		n.Lon = floatRef(*n.Lon)
	}

	return n
}

// ReconciledResult is a final answer of the orchestrator. It is
// immutable after construction: Lat and Lon are either both present or
// both absent.
type ReconciledResult struct {
	NormalizedRecord

	Accuracy Accuracy           `json:"accuracy"`
	Sources  int                `json:"sources"`
	Details  []NormalizedRecord `json:"details,omitempty"`
}

func floatRef(value float64) *float64 {
	return &value
}
