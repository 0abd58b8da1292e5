package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/geotrack/geotrack/geolib"
	"github.com/geotrack/geotrack/report"
	"github.com/geotrack/geotrack/storage"
)

const outputRuleWidth = 60

type printer struct {
	writer io.Writer
	json   bool
}

func (p printer) Result(result geolib.ReconciledResult) {
	if p.json {
		p.encode(result)

		return
	}

	p.rule()
	p.record(result.NormalizedRecord)
	fmt.Fprintf(p.writer, "Accuracy: %s\n", result.Accuracy)
	fmt.Fprintf(p.writer, "Sources: %d\n", result.Sources)
	p.rule()
}

func (p printer) Record(record geolib.NormalizedRecord) {
	if p.json {
		p.encode(record)

		return
	}

	p.rule()
	p.record(record)
	fmt.Fprintf(p.writer, "Source: %s\n", record.Source)
	p.rule()
}

func (p printer) Entries(entries []storage.Entry) {
	if p.json {
		p.encode(entries)

		return
	}

	if len(entries) == 0 {
		fmt.Fprintln(p.writer, "No tracking history")

		return
	}

	for _, v := range entries {
		coordinates := "N/A"
		if v.Lat != nil && v.Lon != nil {
			coordinates = fmt.Sprintf("%.4f, %.4f", *v.Lat, *v.Lon)
		}

		fmt.Fprintf(p.writer, "%s  %-15s  %-8s  %-20s  %-20s  %s  [%s]\n",
			v.Timestamp.Format("2006-01-02 15:04:05"),
			v.Target,
			v.TargetType,
			orDash(v.City),
			orDash(report.CountryName(v.Country)),
			coordinates,
			orDash(string(v.Accuracy)))
	}
}

func (p printer) Message(format string, args ...interface{}) {
	if p.json {
		return
	}

	fmt.Fprintf(p.writer, format+"\n", args...)
}

func (p printer) record(record geolib.NormalizedRecord) {
	fmt.Fprintf(p.writer, "IP Address: %s\n", record.IP)

	for _, v := range [][2]string{
		{"City", record.City},
		{"Region", record.Region},
		{"Country", report.CountryName(record.Country)},
	} {
		if v[1] != "" {
			fmt.Fprintf(p.writer, "%s: %s\n", v[0], v[1])
		}
	}

	if lat, lon, ok := record.Coordinates(); ok {
		fmt.Fprintf(p.writer, "Coordinates: %.4f, %.4f\n", lat, lon)
		fmt.Fprintf(p.writer, "Google Maps: https://maps.google.com/?q=%v,%v\n", lat, lon)
	}

	if record.ISP != "" {
		fmt.Fprintf(p.writer, "ISP: %s\n", record.ISP)
	}

	if record.Timezone != "" {
		fmt.Fprintf(p.writer, "Timezone: %s\n", record.Timezone)
	}
}

func (p printer) rule() {
	fmt.Fprintln(p.writer, strings.Repeat("=", outputRuleWidth))
}

func (p printer) encode(data interface{}) {
	encoder := json.NewEncoder(p.writer)

	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	encoder.Encode(data) // nolint: errcheck
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}

	return value
}
