package report

import (
	"embed"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"

	"github.com/geotrack/geotrack/geolib"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const notAvailable = "N/A"

var templateFuncs = map[string]interface{}{
	"inc": func(value int) int {
		return value + 1
	},
	"rule": func(width int) string {
		return strings.Repeat("=", width)
	},
	"orNA": func(value string) string {
		if value == "" {
			return notAvailable
		}

		return value
	},
	"targetType": func(value geolib.TargetType) string {
		if value == geolib.TargetSelfIP {
			return "Own IP Address"
		}

		return "IP Address"
	},
	"hasCoordinates": func(record geolib.NormalizedRecord) bool {
		return record.HasCoordinates()
	},
	"coordinates": func(record geolib.NormalizedRecord) string {
		lat, lon, ok := record.Coordinates()
		if !ok {
			return notAvailable + ", " + notAvailable
		}

		return formatCoordinate(lat) + ", " + formatCoordinate(lon)
	},
	"mapsURL": func(record geolib.NormalizedRecord) string {
		lat, lon, _ := record.Coordinates()

		return "https://maps.google.com/?q=" + formatCoordinate(lat) + "," + formatCoordinate(lon)
	},
}

var (
	textReportTemplate = texttemplate.Must(
		texttemplate.New("report.txt.tmpl").
			Funcs(texttemplate.FuncMap(templateFuncs)).
			ParseFS(templatesFS, "templates/report.txt.tmpl"))
	htmlReportTemplate = htmltemplate.Must(
		htmltemplate.New("report.html.tmpl").
			Funcs(htmltemplate.FuncMap(templateFuncs)).
			ParseFS(templatesFS, "templates/report.html.tmpl"))
	mapTemplate = htmltemplate.Must(
		htmltemplate.New("map.html.tmpl").
			Funcs(htmltemplate.FuncMap(templateFuncs)).
			ParseFS(templatesFS, "templates/map.html.tmpl"))
)

func formatCoordinate(value float64) string {
	return strconv.FormatFloat(value, 'f', 4, 64)
}
