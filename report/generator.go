package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/geotrack/geotrack/geolib"
	"github.com/spf13/afero"
)

// Format is a format of the report.
type Format string

const (
	FormatText Format = "txt"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Formats lists every supported report format.
var Formats = []Format{FormatText, FormatHTML, FormatJSON, FormatCSV}

const (
	DefaultMapPath = "tracking_map.html"

	defaultMapZoom      = 10
	reportTimestampName = "20060102_150405"
)

var (
	ErrNoData          = errors.New("no tracking data to report")
	ErrNoCoordinates   = errors.New("no entries with coordinates")
	ErrUnknownFormat   = errors.New("unknown report format")
	errCannotWriteFile = errors.New("cannot write file")
)

// ParseFormat converts a string into a format, case insensitive.
func ParseFormat(value string) (Format, error) {
	value = strings.ToLower(strings.TrimSpace(value))

	for _, v := range Formats {
		if string(v) == value {
			return v, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, value)
}

type reportContext struct {
	Generated       time.Time
	Items           []Item
	WithCoordinates int
	HighAccuracy    int
}

type mapMarker struct {
	Title   string  `json:"title"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	ISP     string  `json:"isp"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type mapContext struct {
	Markers   []mapMarker
	CenterLat float64
	CenterLon float64
	Zoom      int
}

// Generator writes reports and maps into a filesystem.
type Generator struct {
	fs  afero.Fs
	now func() time.Time
}

// Report renders items in a given format and writes it into path. If
// path is empty, a timestamped name in the current directory is used.
// It returns a path of the written file.
func (g *Generator) Report(items []Item, format Format, path string) (string, error) {
	if len(items) == 0 {
		return "", ErrNoData
	}

	now := g.now()

	if path == "" {
		path = fmt.Sprintf("tracking_report_%s.%s", now.Format(reportTimestampName), format)
	}

	buf := bytes.Buffer{}

	var err error

	switch format {
	case FormatText:
		err = textReportTemplate.Execute(&buf, newReportContext(items, now))
	case FormatHTML:
		err = htmlReportTemplate.Execute(&buf, newReportContext(items, now))
	case FormatJSON:
		err = writeJSON(&buf, items)
	case FormatCSV:
		err = writeCSV(&buf, items)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	if err != nil {
		return "", fmt.Errorf("cannot render report: %w", err)
	}

	return path, g.write(path, buf.Bytes())
}

// Map renders an HTML map with a marker for every item which has
// coordinates. The map is centered at the mean position.
func (g *Generator) Map(items []Item, path string) (string, error) {
	if len(items) == 0 {
		return "", ErrNoData
	}

	if path == "" {
		path = DefaultMapPath
	}

	ctx := mapContext{
		Markers: []mapMarker{},
		Zoom:    defaultMapZoom,
	}

	for _, v := range items {
		lat, lon, ok := v.Result.Coordinates()
		if !ok {
			continue
		}

		title := v.Result.IP
		if title == "" {
			title = v.Target
		}

		ctx.Markers = append(ctx.Markers, mapMarker{
			Title:   title,
			City:    orUnknown(v.Result.City),
			Country: orUnknown(v.Country()),
			ISP:     orUnknown(v.Result.ISP),
			Lat:     lat,
			Lon:     lon,
		})
		ctx.CenterLat += lat
		ctx.CenterLon += lon
	}

	if len(ctx.Markers) == 0 {
		return "", ErrNoCoordinates
	}

	ctx.CenterLat /= float64(len(ctx.Markers))
	ctx.CenterLon /= float64(len(ctx.Markers))

	buf := bytes.Buffer{}

	if err := mapTemplate.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("cannot render map: %w", err)
	}

	return path, g.write(path, buf.Bytes())
}

func (g *Generator) write(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := g.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w %s: %v", errCannotWriteFile, path, err)
		}
	}

	if err := afero.WriteFile(g.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("%w %s: %v", errCannotWriteFile, path, err)
	}

	return nil
}

func newReportContext(items []Item, now time.Time) reportContext {
	ctx := reportContext{
		Generated: now,
		Items:     items,
	}

	for _, v := range items {
		if v.Result.HasCoordinates() {
			ctx.WithCoordinates++
		}

		if v.Result.Accuracy == geolib.AccuracyHigh {
			ctx.HighAccuracy++
		}
	}

	return ctx
}

func writeJSON(w io.Writer, items []Item) error {
	results := make([]geolib.ReconciledResult, 0, len(items))

	for _, v := range items {
		results = append(results, v.Result)
	}

	encoder := json.NewEncoder(w)

	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	return encoder.Encode(results)
}

func writeCSV(w io.Writer, items []Item) error {
	writer := csv.NewWriter(w)

	writer.Write([]string{ // nolint: errcheck
		"Type", "Target", "City", "Country", "Latitude", "Longitude",
		"ISP", "Source", "Accuracy",
	})

	for _, v := range items {
		lat, lon := "", ""

		if latValue, lonValue, ok := v.Result.Coordinates(); ok {
			lat = strconv.FormatFloat(latValue, 'f', -1, 64)
			lon = strconv.FormatFloat(lonValue, 'f', -1, 64)
		}

		writer.Write([]string{ // nolint: errcheck
			string(v.TargetType),
			v.Target,
			v.Result.City,
			v.Country(),
			lat,
			lon,
			v.Result.ISP,
			v.Result.Source,
			string(v.Result.Accuracy),
		})
	}

	writer.Flush()

	return writer.Error()
}

func orUnknown(value string) string {
	if value == "" {
		return "Unknown"
	}

	return value
}

// NewGenerator returns a generator which writes into fs.
func NewGenerator(fs afero.Fs) *Generator {
	return &Generator{
		fs:  fs,
		now: time.Now,
	}
}
