package geolib

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
)

type httpProvider struct {
	config ProviderConfig
	client HTTPClient
}

func (h httpProvider) Name() string {
	return h.config.Name
}

func (h httpProvider) Lookup(ctx context.Context, query Query) (NormalizedRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.config.URL(query), nil)
	if err != nil {
		return NormalizedRecord{}, fmt.Errorf("%w: cannot build a request: %v", ErrProviderUnavailable, err)
	}

	req.Header.Set("Accept", "application/json")

	for k, v := range h.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return NormalizedRecord{}, fmt.Errorf("%w: cannot send a request: %v", ErrProviderUnavailable, err)
	}

	defer flushResponse(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return NormalizedRecord{}, fmt.Errorf("%w: unexpected status code %d", ErrProviderUnavailable, resp.StatusCode)
	}

	body := map[string]interface{}{}
	decoder := json.NewDecoder(bufio.NewReader(resp.Body))

	decoder.UseNumber()

	if err := decoder.Decode(&body); err != nil {
		return NormalizedRecord{}, fmt.Errorf("%w: cannot parse a response: %v", ErrProviderUnavailable, err)
	}

	if err := inBandError(body); err != nil {
		return NormalizedRecord{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return normalize(h.config, query, body), nil
}

// NewHTTPProvider makes a provider driven by a given config. Client is
// usually built with NewHTTPClient so it brings rate limiting and
// timeouts.
func NewHTTPProvider(config ProviderConfig, client HTTPClient) (Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return httpProvider{
		config: config,
		client: client,
	}, nil
}

func normalize(config ProviderConfig, query Query, body map[string]interface{}) NormalizedRecord {
	rv := NormalizedRecord{
		IP:     query.String(),
		Source: config.Name,
	}
	// a single native field can carry only a "lat,lon" pair
	shared := config.SharesCoordinateField()

	for _, key := range NormalizedFields {
		native, ok := config.Fields[key]
		if !ok {
			continue
		}

		value, ok := body[native]
		if !ok || value == nil {
			continue
		}

		switch key {
		case FieldIP:
			// always stamped from the query
		case FieldLat:
			if str, ok := value.(string); ok && (shared || strings.Contains(str, ",")) {
				if lat, lon, ok := parseCoordinatePair(str); ok {
					rv.Lat = floatRef(lat)
					rv.Lon = floatRef(lon)
				}

				continue
			}

			if num, ok := toFloat(value); ok && !shared {
				rv.Lat = floatRef(num)
			}
		case FieldLon:
			if shared {
				continue
			}

			if num, ok := toFloat(value); ok {
				rv.Lon = floatRef(num)
			}
		default:
			text, ok := toText(value)
			if !ok {
				continue
			}

			switch key {
			case FieldCity:
				rv.City = text
			case FieldRegion:
				rv.Region = text
			case FieldCountry:
				rv.Country = text
			case FieldISP:
				rv.ISP = text
			case FieldTimezone:
				rv.Timezone = text
			}
		}
	}

	return rv
}

func inBandError(body map[string]interface{}) error {
	if status, ok := body["status"].(string); ok && strings.EqualFold(status, "fail") {
		message, _ := toText(body["message"])

		return fmt.Errorf("provider has reported a failure: %s", message)
	}

	switch value := body["error"].(type) {
	case bool:
		if value {
			reason, _ := toText(body["reason"])

			return fmt.Errorf("provider has reported an error: %s", reason)
		}
	case map[string]interface{}:
		title, _ := toText(value["title"])

		return fmt.Errorf("provider has reported an error: %s", title)
	}

	return nil
}

func parseCoordinatePair(value string) (float64, float64, bool) {
	chunks := strings.Split(value, ",")
	if len(chunks) != 2 {
		return 0, 0, false
	}

	lat, ok := toFloat(chunks[0])
	if !ok {
		return 0, 0, false
	}

	lon, ok := toFloat(chunks[1])
	if !ok {
		return 0, 0, false
	}

	return lat, lon, true
}

// toFloat converts a numeric value of a response. NaN and infinities
// are treated as absent values.
func toFloat(value interface{}) (float64, bool) {
	var (
		num float64
		err error
	)

	switch v := value.(type) {
	case json.Number:
		num, err = v.Float64()
	case float64:
		num = v
	case string:
		num, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, false
	}

	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, false
	}

	return num, true
}

func toText(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	}

	return "", false
}

func flushResponse(body io.ReadCloser) {
	io.Copy(io.Discard, body) // nolint: errcheck
	body.Close()
}
