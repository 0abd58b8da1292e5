package report_test

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/geotrack/geotrack/geolib"
	"github.com/geotrack/geotrack/report"
	"github.com/geotrack/geotrack/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func coord(value float64) *float64 {
	return &value
}

type GeneratorTestSuite struct {
	suite.Suite

	fs    afero.Fs
	gen   *report.Generator
	items []report.Item
}

func (suite *GeneratorTestSuite) SetupTest() {
	suite.fs = afero.NewMemMapFs()
	suite.gen = report.NewGenerator(suite.fs)
	suite.items = report.FromResults([]geolib.ReconciledResult{
		{
			NormalizedRecord: geolib.NormalizedRecord{
				IP:      "8.8.8.8",
				Source:  "ipapi",
				City:    "Mountain View",
				Country: "US",
				ISP:     "Google <LLC>",
				Lat:     coord(37.0),
				Lon:     coord(-122.0),
			},
			Accuracy: geolib.AccuracyHigh,
			Sources:  3,
		},
		{
			NormalizedRecord: geolib.NormalizedRecord{
				IP:     "1.2.3.4",
				Source: "ipinfo",
			},
			Accuracy: geolib.AccuracyMedium,
			Sources:  1,
		},
		{
			NormalizedRecord: geolib.NormalizedRecord{
				IP:     "9.9.9.9",
				Source: "geolocation",
				Lat:    coord(39.0),
				Lon:    coord(-120.0),
			},
			Accuracy: geolib.AccuracyMedium,
			Sources:  1,
		},
	}, time.Now())
}

func (suite *GeneratorTestSuite) read(path string) string {
	data, err := afero.ReadFile(suite.fs, path)

	suite.Require().NoError(err)

	return string(data)
}

func (suite *GeneratorTestSuite) TestNoData() {
	_, err := suite.gen.Report(nil, report.FormatText, "out.txt")

	suite.ErrorIs(err, report.ErrNoData)

	_, err = suite.gen.Map(nil, "")

	suite.ErrorIs(err, report.ErrNoData)
}

func (suite *GeneratorTestSuite) TestUnknownFormat() {
	_, err := suite.gen.Report(suite.items, report.Format("pdf"), "out.pdf")

	suite.ErrorIs(err, report.ErrUnknownFormat)
}

func (suite *GeneratorTestSuite) TestText() {
	path, err := suite.gen.Report(suite.items, report.FormatText, "reports/out.txt")

	suite.NoError(err)
	suite.Equal("reports/out.txt", path)

	content := suite.read(path)

	suite.Contains(content, "LOCATION TRACKING REPORT")
	suite.Contains(content, "Total Entries: 3")
	suite.Contains(content, "ENTRY 1:")
	suite.Contains(content, "ENTRY 3:")
	suite.Contains(content, "Location: Mountain View, United States")
	suite.Contains(content, "Coordinates: 37.0000, -122.0000")
	suite.Contains(content, "Location: N/A, N/A")
	suite.Contains(content, "Coordinates: N/A, N/A")
	suite.Contains(content, "Accuracy: high")
}

func (suite *GeneratorTestSuite) TestHTML() {
	path, err := suite.gen.Report(suite.items, report.FormatHTML, "out.html")

	suite.NoError(err)

	content := suite.read(path)

	suite.Contains(content, "<title>Location Tracking Report</title>")
	suite.Contains(content, "Google &lt;LLC&gt;")
	suite.NotContains(content, "Google <LLC>")
	suite.Equal(2, strings.Count(content, "View on Google Maps"))
	suite.Contains(content, "https://maps.google.com/?q=37.0000,-122.0000")
}

func (suite *GeneratorTestSuite) TestJSON() {
	path, err := suite.gen.Report(suite.items, report.FormatJSON, "out.json")

	suite.NoError(err)

	results := []geolib.ReconciledResult{}

	suite.NoError(json.Unmarshal([]byte(suite.read(path)), &results))
	suite.Len(results, 3)
	suite.Equal("8.8.8.8", results[0].IP)
	suite.Equal(geolib.AccuracyHigh, results[0].Accuracy)
}

func (suite *GeneratorTestSuite) TestCSV() {
	path, err := suite.gen.Report(suite.items, report.FormatCSV, "out.csv")

	suite.NoError(err)

	rows, err := csv.NewReader(strings.NewReader(suite.read(path))).ReadAll()

	suite.NoError(err)
	suite.Len(rows, 4)
	suite.Equal("Target", rows[0][1])
	suite.Equal([]string{
		"ip", "8.8.8.8", "Mountain View", "United States", "37", "-122",
		"Google <LLC>", "ipapi", "high",
	}, rows[1])
	suite.Equal("", rows[2][4])
}

func (suite *GeneratorTestSuite) TestMap() {
	path, err := suite.gen.Map(suite.items, "")

	suite.NoError(err)
	suite.Equal(report.DefaultMapPath, path)

	content := suite.read(path)

	suite.Contains(content, "leaflet")
	suite.Contains(content, "8.8.8.8")
	suite.Contains(content, "9.9.9.9")
	suite.NotContains(content, "1.2.3.4")
	suite.Regexp(`setView\(\[\s*38\s*,\s*-121\s*\]`, content)
}

func (suite *GeneratorTestSuite) TestMapNoCoordinates() {
	_, err := suite.gen.Map(suite.items[1:2], "map.html")

	suite.ErrorIs(err, report.ErrNoCoordinates)
}

func (suite *GeneratorTestSuite) TestReadOnlyFilesystem() {
	gen := report.NewGenerator(afero.NewReadOnlyFs(afero.NewMemMapFs()))

	_, err := gen.Report(suite.items, report.FormatText, "out.txt")

	suite.Error(err)
}

func TestGenerator(t *testing.T) {
	suite.Run(t, &GeneratorTestSuite{})
}

func TestParseFormat(t *testing.T) {
	format, err := report.ParseFormat(" HTML ")

	assert.NoError(t, err)
	assert.Equal(t, report.FormatHTML, format)

	_, err = report.ParseFormat("pdf")

	assert.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestFromEntries(t *testing.T) {
	items := report.FromEntries([]storage.Entry{
		{
			Target:     "1.1.1.1",
			TargetType: geolib.TargetIP,
			City:       "Sydney",
			Lat:        coord(-33.8),
			Lon:        coord(151.2),
			Accuracy:   geolib.AccuracyMedium,
		},
		{
			TargetType: geolib.TargetSelfIP,
			Result: geolib.ReconciledResult{
				NormalizedRecord: geolib.NormalizedRecord{IP: "2.2.2.2", Source: "p"},
			},
		},
	})

	assert.Len(t, items, 2)
	assert.Equal(t, "1.1.1.1", items[0].Result.IP)
	assert.Equal(t, "Sydney", items[0].Result.City)
	assert.True(t, items[0].Result.HasCoordinates())
	assert.Equal(t, "2.2.2.2", items[1].Target)
	assert.Equal(t, geolib.TargetSelfIP, items[1].TargetType)
}
