package providers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/geotrack/geotrack/geolib"
	"github.com/geotrack/geotrack/providers"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func TestConfigsAreValid(t *testing.T) {
	names := []string{}

	for _, v := range providers.Configs() {
		assert.NoError(t, v.Validate(), v.Name)
		names = append(names, v.Name)
	}

	assert.Equal(t, []string{
		providers.NameIPAPI,
		providers.NameIPInfo,
		providers.NameGeolocation,
	}, names)
}

func TestConfigsAreCopies(t *testing.T) {
	first := providers.Configs()
	first[0].Fields[geolib.FieldCity] = "town"

	second, ok := providers.Config(providers.NameIPAPI)

	assert.True(t, ok)
	assert.Equal(t, "city", second.Fields[geolib.FieldCity])
}

func TestConfigUnknown(t *testing.T) {
	_, ok := providers.Config("unknown")

	assert.False(t, ok)
}

func TestOnlyIPInfoSharesCoordinates(t *testing.T) {
	for _, v := range providers.Configs() {
		assert.Equal(t, v.Name == providers.NameIPInfo, v.SharesCoordinateField(), v.Name)
	}
}

type MockedBuiltinTestSuite struct {
	MockedProviderTestSuite
}

func (suite *MockedBuiltinTestSuite) provider(name string) geolib.Provider {
	config, ok := providers.Config(name)
	suite.True(ok)

	prov, err := geolib.NewHTTPProvider(config, suite.http)
	suite.NoError(err)

	return prov
}

func (suite *MockedBuiltinTestSuite) TestIPAPI() {
	httpmock.RegisterResponder("GET",
		"https://ipapi.co/8.8.8.8/json/",
		httpmock.NewStringResponder(http.StatusOK, `{
			"ip": "8.8.8.8",
			"network": "8.8.8.0/24",
			"version": "IPv4",
			"city": "Mountain View",
			"region": "California",
			"region_code": "CA",
			"country": "US",
			"country_name": "United States",
			"latitude": 37.42301,
			"longitude": -122.083352,
			"timezone": "America/Los_Angeles",
			"org": "GOOGLE"
		}`))

	record, err := suite.provider(providers.NameIPAPI).Lookup(context.Background(), "8.8.8.8")

	suite.NoError(err)
	suite.Equal("8.8.8.8", record.IP)
	suite.Equal(providers.NameIPAPI, record.Source)
	suite.Equal("Mountain View", record.City)
	suite.Equal("California", record.Region)
	suite.Equal("United States", record.Country)
	suite.Equal("GOOGLE", record.ISP)
	suite.Equal("America/Los_Angeles", record.Timezone)
	suite.InDelta(37.42301, *record.Lat, 1e-9)
	suite.InDelta(-122.083352, *record.Lon, 1e-9)
}

func (suite *MockedBuiltinTestSuite) TestIPAPIRateLimited() {
	httpmock.RegisterResponder("GET",
		"https://ipapi.co/8.8.8.8/json/",
		httpmock.NewStringResponder(http.StatusOK, `{
			"error": true,
			"reason": "RateLimited",
			"message": "Visit https://ipapi.co/ratelimited/ for details"
		}`))

	_, err := suite.provider(providers.NameIPAPI).Lookup(context.Background(), "8.8.8.8")

	suite.ErrorIs(err, geolib.ErrProviderUnavailable)
}

func (suite *MockedBuiltinTestSuite) TestIPInfo() {
	httpmock.RegisterResponder("GET",
		"https://ipinfo.io/8.8.8.8/json",
		httpmock.NewStringResponder(http.StatusOK, `{
			"ip": "8.8.8.8",
			"hostname": "dns.google",
			"city": "Mountain View",
			"region": "California",
			"country": "US",
			"loc": "37.4056,-122.0775",
			"org": "AS15169 Google LLC",
			"postal": "94043",
			"timezone": "America/Los_Angeles"
		}`))

	record, err := suite.provider(providers.NameIPInfo).Lookup(context.Background(), "8.8.8.8")

	suite.NoError(err)
	suite.Equal("US", record.Country)
	suite.Equal("AS15169 Google LLC", record.ISP)
	suite.Empty(record.Timezone)
	suite.InDelta(37.4056, *record.Lat, 1e-9)
	suite.InDelta(-122.0775, *record.Lon, 1e-9)
}

func (suite *MockedBuiltinTestSuite) TestGeolocation() {
	httpmock.RegisterResponder("GET",
		"http://ip-api.com/json/8.8.8.8",
		httpmock.NewStringResponder(http.StatusOK, `{
			"status": "success",
			"country": "United States",
			"countryCode": "US",
			"region": "VA",
			"regionName": "Virginia",
			"city": "Ashburn",
			"lat": 39.03,
			"lon": -77.5,
			"timezone": "America/New_York",
			"isp": "Google LLC",
			"query": "8.8.8.8"
		}`))

	record, err := suite.provider(providers.NameGeolocation).Lookup(context.Background(), "8.8.8.8")

	suite.NoError(err)
	suite.Equal("Virginia", record.Region)
	suite.Equal("Ashburn", record.City)
	suite.Equal("Google LLC", record.ISP)
	suite.InDelta(39.03, *record.Lat, 1e-9)
	suite.InDelta(-77.5, *record.Lon, 1e-9)
}

func (suite *MockedBuiltinTestSuite) TestGeolocationReservedRange() {
	httpmock.RegisterResponder("GET",
		"http://ip-api.com/json/10.0.0.1",
		httpmock.NewStringResponder(http.StatusOK, `{
			"status": "fail",
			"message": "private range",
			"query": "10.0.0.1"
		}`))

	_, err := suite.provider(providers.NameGeolocation).Lookup(context.Background(), "10.0.0.1")

	suite.ErrorIs(err, geolib.ErrProviderUnavailable)
}

func TestMockedBuiltin(t *testing.T) {
	suite.Run(t, &MockedBuiltinTestSuite{})
}
