package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/geotrack/geotrack/geolib"
	"github.com/geotrack/geotrack/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func coord(value float64) *float64 {
	return &value
}

type StoreTestSuite struct {
	suite.Suite

	path  string
	store *storage.Store
}

func (suite *StoreTestSuite) SetupTest() {
	suite.path = filepath.Join(suite.T().TempDir(), "nested", "history.db")

	store, err := storage.Open(context.Background(), storage.DriverSQLite, suite.path)
	suite.Require().NoError(err)

	suite.store = store
}

func (suite *StoreTestSuite) TearDownTest() {
	suite.store.Close()
}

func (suite *StoreTestSuite) TestEmpty() {
	entries, err := suite.store.Recent(context.Background(), 10)

	suite.NoError(err)
	suite.Empty(entries)
}

func (suite *StoreTestSuite) TestRoundTrip() {
	result := geolib.ReconciledResult{
		NormalizedRecord: geolib.NormalizedRecord{
			IP:       "8.8.8.8",
			Source:   "ipapi",
			City:     "Mountain View",
			Region:   "California",
			Country:  "United States",
			ISP:      "Google",
			Timezone: "America/Los_Angeles",
			Lat:      coord(37.4),
			Lon:      coord(-122.1),
		},
		Accuracy: geolib.AccuracyHigh,
		Sources:  2,
		Details: []geolib.NormalizedRecord{
			{IP: "8.8.8.8", Source: "ipapi", City: "Mountain View", Lat: coord(37.3), Lon: coord(-122.0)},
			{IP: "8.8.8.8", Source: "ipinfo", Lat: coord(37.5), Lon: coord(-122.2)},
		},
	}

	suite.NoError(suite.store.Save(context.Background(), "8.8.8.8", geolib.TargetIP, result))

	entries, err := suite.store.Recent(context.Background(), 10)

	suite.NoError(err)
	suite.Len(entries, 1)

	entry := entries[0]

	suite.Equal("8.8.8.8", entry.Target)
	suite.Equal(geolib.TargetIP, entry.TargetType)
	suite.Equal("Mountain View", entry.City)
	suite.Equal("United States", entry.Country)
	suite.Equal("Google", entry.ISP)
	suite.Equal("ipapi", entry.Source)
	suite.Equal(geolib.AccuracyHigh, entry.Accuracy)
	suite.InDelta(37.4, *entry.Lat, 1e-9)
	suite.InDelta(-122.1, *entry.Lon, 1e-9)
	suite.False(entry.Timestamp.IsZero())
	suite.Equal(result, entry.Result)
}

func (suite *StoreTestSuite) TestNoCoordinates() {
	result := geolib.ReconciledResult{
		NormalizedRecord: geolib.NormalizedRecord{IP: "1.2.3.4", Source: "p", City: "X"},
		Accuracy:         geolib.AccuracyMedium,
		Sources:          1,
	}

	suite.NoError(suite.store.Save(context.Background(), "", geolib.TargetSelfIP, result))

	entries, err := suite.store.Recent(context.Background(), 10)

	suite.NoError(err)
	suite.Len(entries, 1)
	suite.Nil(entries[0].Lat)
	suite.Nil(entries[0].Lon)
	suite.Equal(geolib.TargetSelfIP, entries[0].TargetType)
}

func (suite *StoreTestSuite) TestLimit() {
	for _, v := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		suite.NoError(suite.store.Save(context.Background(), v, geolib.TargetIP, geolib.ReconciledResult{
			NormalizedRecord: geolib.NormalizedRecord{IP: v, Source: "p"},
		}))
	}

	entries, err := suite.store.Recent(context.Background(), 2)

	suite.NoError(err)
	suite.Len(entries, 2)
}

func (suite *StoreTestSuite) TestIPHistoryIsWritten() {
	suite.NoError(suite.store.Save(context.Background(), "1.1.1.1", geolib.TargetIP, geolib.ReconciledResult{
		NormalizedRecord: geolib.NormalizedRecord{IP: "1.1.1.1", Source: "p"},
	}))

	count, err := suite.store.TrackedIPs(context.Background())

	suite.NoError(err)
	suite.Equal(1, count)
}

func (suite *StoreTestSuite) TestClear() {
	suite.NoError(suite.store.Save(context.Background(), "1.1.1.1", geolib.TargetIP, geolib.ReconciledResult{
		NormalizedRecord: geolib.NormalizedRecord{IP: "1.1.1.1", Source: "p"},
	}))
	suite.NoError(suite.store.Clear(context.Background()))

	entries, err := suite.store.Recent(context.Background(), 10)

	suite.NoError(err)
	suite.Empty(entries)

	count, err := suite.store.TrackedIPs(context.Background())

	suite.NoError(err)
	suite.Zero(count)
}

func (suite *StoreTestSuite) TestReopen() {
	suite.NoError(suite.store.Save(context.Background(), "1.1.1.1", geolib.TargetIP, geolib.ReconciledResult{
		NormalizedRecord: geolib.NormalizedRecord{IP: "1.1.1.1", Source: "p"},
	}))
	suite.NoError(suite.store.Close())

	store, err := storage.Open(context.Background(), storage.DriverSQLite, suite.path)
	suite.Require().NoError(err)

	suite.store = store

	entries, err := suite.store.Recent(context.Background(), 10)

	suite.NoError(err)
	suite.Len(entries, 1)
}

func (suite *StoreTestSuite) TestClosedContext() {
	ctx, cancel := context.WithCancel(context.Background())

	cancel()

	err := suite.store.Save(ctx, "1.1.1.1", geolib.TargetIP, geolib.ReconciledResult{})

	suite.ErrorIs(err, storage.ErrPersistence)
}

func TestStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{})
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), "mysql", "whatever")

	assert.ErrorIs(t, err, storage.ErrPersistence)
}
