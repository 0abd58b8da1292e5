package geolib

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// QueryPlaceholder is substituted with a query in URL templates.
const QueryPlaceholder = "{ip}"

const (
	DefaultHTTPTimeout       = 10 * time.Second
	DefaultRateLimitInterval = 500 * time.Millisecond
	DefaultRateLimitBurst    = 1
)

// ProviderConfig is an immutable descriptor of a single HTTP provider.
//
// Fields maps normalized keys (see NormalizedFields) to the native JSON
// field names of the provider. If some provider packs both coordinates
// into one "lat,lon" string, the same native field has to be mapped
// under both lat and lon keys.
type ProviderConfig struct {
	Name        string
	URLTemplate string
	Fields      map[string]string
	Headers     map[string]string
}

// URL builds a request URL for the given query.
func (p ProviderConfig) URL(query Query) string {
	return strings.ReplaceAll(p.URLTemplate, QueryPlaceholder, url.PathEscape(query.String()))
}

// Validate checks that config is usable.
func (p ProviderConfig) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("provider name is empty")
	}

	if !strings.Contains(p.URLTemplate, QueryPlaceholder) {
		return fmt.Errorf("provider %s: url template has no %s placeholder", p.Name, QueryPlaceholder)
	}

	if _, err := url.Parse(p.URL("127.0.0.1")); err != nil {
		return fmt.Errorf("provider %s: incorrect url template: %w", p.Name, err)
	}

	if len(p.Fields) == 0 {
		return fmt.Errorf("provider %s: field mapping is empty", p.Name)
	}

	known := map[string]bool{}

	for _, v := range NormalizedFields {
		known[v] = true
	}

	for k, v := range p.Fields {
		if !known[k] {
			return fmt.Errorf("provider %s: unknown normalized field %s", p.Name, k)
		}

		if v == "" {
			return fmt.Errorf("provider %s: native field for %s is empty", p.Name, k)
		}
	}

	return nil
}

// SharesCoordinateField tells if lat and lon are backed by the same
// native field.
func (p ProviderConfig) SharesCoordinateField() bool {
	lat, ok := p.Fields[FieldLat]

	return ok && lat == p.Fields[FieldLon]
}
