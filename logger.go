package main

import (
	"io"

	"github.com/geotrack/geotrack/geolib"
	"github.com/rs/zerolog"
)

type logger struct {
	queryLog   zerolog.Logger
	lookupLog  zerolog.Logger
	persistLog zerolog.Logger
	trackLog   zerolog.Logger
}

func (l *logger) QueryError(value string, err error) {
	l.queryLog.Warn().Str("value", value).Err(err).Msg("Incorrect query")
}

func (l *logger) LookupError(query geolib.Query, name string, err error) {
	l.lookupLog.Error().Str("provider", name).Stringer("ip", query).Err(err).Msg("")
}

func (l *logger) PersistError(target string, err error) {
	l.persistLog.Error().Str("target", target).Err(err).Msg("Cannot save tracking result")
}

func (l *logger) TrackInfo(result geolib.ReconciledResult) {
	l.trackLog.Info().
		Str("ip", result.IP).
		Str("accuracy", string(result.Accuracy)).
		Int("sources", result.Sources).
		Msg("Address was tracked")
}

func newLogger(writer io.Writer, debug bool) geolib.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}

	eventLogger := func(name string) zerolog.Logger {
		return zerolog.New(writer).Level(level).With().Timestamp().Str("event_name", name).Logger()
	}

	return &logger{
		queryLog:   eventLogger("query"),
		lookupLog:  eventLogger("lookup"),
		persistLog: eventLogger("persist"),
		trackLog:   eventLogger("track"),
	}
}
