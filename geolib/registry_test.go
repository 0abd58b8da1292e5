package geolib_test

import (
	"testing"

	"github.com/geotrack/geotrack/geolib"
	"github.com/stretchr/testify/suite"
)

type RegistryTestSuite struct {
	suite.Suite

	providers []geolib.Provider
}

func (suite *RegistryTestSuite) SetupTest() {
	suite.providers = nil

	for _, name := range []string{"ipapi", "ipinfo", "geolocation"} {
		prov := &ProviderMock{}

		prov.On("Name").Return(name).Maybe()

		suite.providers = append(suite.providers, prov)
	}
}

func (suite *RegistryTestSuite) TestOrder() {
	registry, err := geolib.NewRegistry(suite.providers, "")

	suite.NoError(err)
	suite.Equal([]string{"ipapi", "ipinfo", "geolocation"}, registry.Names())
	suite.Equal(suite.providers, registry.All())
	suite.Equal(3, registry.Len())
	suite.Equal("ipapi", registry.Default())
}

func (suite *RegistryTestSuite) TestAllIsACopy() {
	registry, err := geolib.NewRegistry(suite.providers, "")

	suite.NoError(err)

	all := registry.All()
	all[0] = nil

	suite.NotNil(registry.All()[0])
}

func (suite *RegistryTestSuite) TestGet() {
	registry, err := geolib.NewRegistry(suite.providers, "ipinfo")

	suite.NoError(err)
	suite.Equal("geolocation", registry.Get("geolocation").Name())
	suite.Equal("ipinfo", registry.Get("unknown").Name())
	suite.Equal("ipinfo", registry.Get("").Name())
}

func (suite *RegistryTestSuite) TestUnknownDefault() {
	_, err := geolib.NewRegistry(suite.providers, "unknown")

	suite.Error(err)
}

func (suite *RegistryTestSuite) TestDuplicates() {
	_, err := geolib.NewRegistry(append(suite.providers, suite.providers[0]), "")

	suite.EqualError(err, "provider ipapi is duplicated")
}

func (suite *RegistryTestSuite) TestEmpty() {
	_, err := geolib.NewRegistry(nil, "")

	suite.Error(err)
}

func TestRegistry(t *testing.T) {
	suite.Run(t, &RegistryTestSuite{})
}
