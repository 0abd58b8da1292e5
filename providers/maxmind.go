package providers

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/geotrack/geotrack/geolib"
	"github.com/oschwald/geoip2-golang"
)

// ErrNoData is returned if offline database has no data for the
// address.
var ErrNoData = errors.New("database has no data for this address")

const maxmindDefaultLanguage = "en"

// MaxmindProvider resolves addresses with a local GeoLite2 City
// database. It does not use network so it is a good last resort in the
// registry.
type MaxmindProvider struct {
	db       *geoip2.Reader
	language string
}

func (m *MaxmindProvider) Name() string {
	return NameMaxmindLite
}

func (m *MaxmindProvider) Lookup(ctx context.Context, query geolib.Query) (geolib.NormalizedRecord, error) {
	if err := ctx.Err(); err != nil {
		return geolib.NormalizedRecord{}, fmt.Errorf("%w: %v", geolib.ErrProviderUnavailable, err)
	}

	city, err := m.db.City(net.ParseIP(query.String()))
	if err != nil {
		return geolib.NormalizedRecord{}, fmt.Errorf("%w: cannot lookup: %v", geolib.ErrProviderUnavailable, err)
	}

	record, ok := maxmindCityToRecord(query, city, m.language)
	if !ok {
		return geolib.NormalizedRecord{}, fmt.Errorf("%w: %v", geolib.ErrProviderUnavailable, ErrNoData)
	}

	return record, nil
}

func (m *MaxmindProvider) Close() error {
	return m.db.Close()
}

func maxmindCityToRecord(query geolib.Query, city *geoip2.City, language string) (geolib.NormalizedRecord, bool) {
	rv := geolib.NormalizedRecord{
		IP:       query.String(),
		Source:   NameMaxmindLite,
		City:     city.City.Names[language],
		Country:  city.Country.Names[language],
		Timezone: city.Location.TimeZone,
	}

	if len(city.Subdivisions) > 0 {
		rv.Region = city.Subdivisions[0].Names[language]
	}

	if city.Location.Latitude != 0 || city.Location.Longitude != 0 {
		lat := city.Location.Latitude
		lon := city.Location.Longitude
		rv.Lat = &lat
		rv.Lon = &lon
	}

	if rv.Country == "" && city.Country.IsoCode != "" {
		rv.Country = city.Country.IsoCode
	}

	return rv, rv.Country != "" || rv.HasCoordinates()
}

// NewMaxmind opens GeoLite2 City database at given path. Language is
// a language of names, English by default.
func NewMaxmind(path, language string) (*MaxmindProvider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open maxmind database: %w", err)
	}

	if language == "" {
		language = maxmindDefaultLanguage
	}

	return &MaxmindProvider{
		db:       db,
		language: language,
	}, nil
}
