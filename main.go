package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/geotrack/geotrack/geolib"
	"github.com/geotrack/geotrack/report"
	"github.com/geotrack/geotrack/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

const serverShutdownTimeout = 10 * time.Second

var version = "dev"

var (
	app = kingpin.New(
		"geotrack",
		"Multi-source IP geolocation tracker")

	debug = app.Flag("debug", "Run in debug mode.").
		Short('d').
		Envar("GEOTRACK_DEBUG").
		Bool()
	configFile = app.Flag("config", "Path to the config.").
			Short('c').
			Envar("GEOTRACK_CONFIG").
			File()
	jsonOutput = app.Flag("json", "Print results as JSON.").
			Envar("GEOTRACK_JSON").
			Bool()

	trackCommand  = app.Command("track", "Track a single IP address.")
	trackIP       = trackCommand.Arg("ip", "IPv4 address to track.").Required().String()
	trackProvider = trackCommand.Flag("provider", "Ask only this provider, nothing is saved.").
			Short('p').
			String()

	bulkCommand = app.Command("bulk", "Track addresses from a file, one per line.")
	bulkFile    = bulkCommand.Arg("file", "Path to the file, - for stdin.").Required().String()

	selfCommand = app.Command("self", "Track a public address of this machine.")

	historyCommand = app.Command("history", "Show persisted tracking history.")
	historyLimit   = historyCommand.Flag("limit", "How many entries to show.").
			Short('n').
			Default("50").
			Int()

	clearCommand = app.Command("clear", "Remove persisted tracking history.")
	clearYes     = clearCommand.Flag("yes", "Confirm removal.").Short('y').Bool()

	reportCommand = app.Command("report", "Generate a report from persisted history.")
	reportFormat  = reportCommand.Flag("format", "Report format.").
			Short('f').
			Default(string(report.FormatText)).
			Enum(string(report.FormatText), string(report.FormatHTML), string(report.FormatJSON), string(report.FormatCSV))
	reportOutput = reportCommand.Flag("output", "Path to the report.").Short('o').String()
	reportLimit  = reportCommand.Flag("limit", "How many entries to include.").
			Short('n').
			Default("50").
			Int()

	mapCommand = app.Command("map", "Generate an HTML map from persisted history.")
	mapOutput  = mapCommand.Flag("output", "Path to the map.").
			Short('o').
			Default(report.DefaultMapPath).
			String()
	mapLimit = mapCommand.Flag("limit", "How many entries to include.").
			Short('n').
			Default("50").
			Int()

	serveCommand = app.Command("serve", "Run HTTP API.")
	serveListen  = serveCommand.Flag("listen", "host:port to listen on.").
			Short('l').
			Envar("GEOTRACK_LISTEN").
			String()
)

func init() {
	app.Version(version)
}

func main() {
	if err := loadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	appLog := zerolog.New(os.Stderr).With().Timestamp().Str("event_name", "app").Logger()

	if err := run(command); err != nil {
		appLog.Error().Str("command", command).Err(err).Msg("Command has failed")
		os.Exit(1)
	}
}

func run(command string) error {
	conf := &config{}

	if *configFile != nil {
		parsed, err := parseConfig(*configFile)
		(*configFile).Close()

		if err != nil {
			return fmt.Errorf("cannot parse config: %w", err)
		}

		conf = parsed
	} else if err := validateConfig(conf); err != nil {
		return err
	}

	if *serveListen != "" {
		conf.Listen = *serveListen
	}

	ctx, cancel := makeRootContext()
	defer cancel()

	store, err := makeStore(ctx, conf)
	if err != nil {
		return err
	}

	if store != nil {
		defer store.Close()
	}

	out := printer{writer: os.Stdout, json: *jsonOutput}

	switch command {
	case historyCommand.FullCommand():
		return runHistory(ctx, out, store)
	case clearCommand.FullCommand():
		return runClear(ctx, out, store)
	case reportCommand.FullCommand():
		return runReport(ctx, out, store)
	case mapCommand.FullCommand():
		return runMap(ctx, out, store)
	}

	provs, closers, err := makeProviders(conf)
	if err != nil {
		return err
	}

	defer closeAll(closers)

	orchestrator, err := makeOrchestrator(conf, newLogger(os.Stderr, *debug), store, provs)
	if err != nil {
		return err
	}

	defer orchestrator.Shutdown()

	switch command {
	case trackCommand.FullCommand():
		return runTrack(ctx, out, orchestrator)
	case bulkCommand.FullCommand():
		return runBulk(ctx, out, orchestrator)
	case selfCommand.FullCommand():
		return runSelf(ctx, out, orchestrator)
	case serveCommand.FullCommand():
		return runServe(ctx, conf, orchestrator, store)
	}

	return fmt.Errorf("unknown command %s", command)
}

func runTrack(ctx context.Context, out printer, orchestrator *geolib.Orchestrator) error {
	if *trackProvider != "" {
		record, ok, err := orchestrator.ResolveSingle(ctx, *trackIP, *trackProvider)
		if err != nil {
			return err
		}

		if !ok {
			return geolib.ErrNoProvidersSucceeded
		}

		out.Record(record)

		return nil
	}

	result, ok, err := orchestrator.Track(ctx, *trackIP, geolib.TargetIP)
	if err != nil {
		return err
	}

	if !ok {
		return geolib.ErrNoProvidersSucceeded
	}

	out.Result(result)

	return nil
}

func runBulk(ctx context.Context, out printer, orchestrator *geolib.Orchestrator) error {
	var reader io.Reader = os.Stdin

	if *bulkFile != "-" {
		file, err := os.Open(*bulkFile)
		if err != nil {
			return fmt.Errorf("cannot open file: %w", err)
		}

		defer file.Close()

		reader = file
	}

	queries, err := readQueries(reader)
	if err != nil {
		return err
	}

	results, err := orchestrator.TrackAll(ctx, queries)

	for _, v := range results {
		out.Result(v)
	}

	out.Message("Completed bulk tracking: %d/%d successful", len(results), len(queries))

	return err
}

func runSelf(ctx context.Context, out printer, orchestrator *geolib.Orchestrator) error {
	result, ok, err := orchestrator.TrackSelf(ctx)
	if err != nil {
		return err
	}

	if !ok {
		return geolib.ErrNoProvidersSucceeded
	}

	out.Result(result)

	return nil
}

var errStorageDisabled = errors.New("database is disabled in config")

func runHistory(ctx context.Context, out printer, store *storage.Store) error {
	if store == nil {
		return errStorageDisabled
	}

	entries, err := store.Recent(ctx, *historyLimit)
	if err != nil {
		return err
	}

	total, err := store.TrackedIPs(ctx)
	if err != nil {
		return err
	}

	out.Entries(entries)

	if len(entries) > 0 {
		out.Message("Shown %d of %d tracked addresses", len(entries), total)
	}

	return nil
}

func runClear(ctx context.Context, out printer, store *storage.Store) error {
	if store == nil {
		return errStorageDisabled
	}

	if !*clearYes {
		return errors.New("history is not removed: pass --yes to confirm")
	}

	if err := store.Clear(ctx); err != nil {
		return err
	}

	out.Message("Tracking history cleared")

	return nil
}

func runReport(ctx context.Context, out printer, store *storage.Store) error {
	if store == nil {
		return errStorageDisabled
	}

	entries, err := store.Recent(ctx, *reportLimit)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(*reportFormat)
	if err != nil {
		return err
	}

	path, err := report.NewGenerator(afero.NewOsFs()).Report(report.FromEntries(entries), format, *reportOutput)
	if err != nil {
		return err
	}

	out.Message("Report saved: %s", path)

	return nil
}

func runMap(ctx context.Context, out printer, store *storage.Store) error {
	if store == nil {
		return errStorageDisabled
	}

	entries, err := store.Recent(ctx, *mapLimit)
	if err != nil {
		return err
	}

	path, err := report.NewGenerator(afero.NewOsFs()).Map(report.FromEntries(entries), *mapOutput)
	if err != nil {
		return err
	}

	out.Message("Map generated: %s", path)

	return nil
}

func runServe(ctx context.Context, conf *config, orchestrator *geolib.Orchestrator, store *storage.Store) error {
	var history historyReader

	if store != nil {
		history = store
	}

	srv := &http.Server{
		Addr:    conf.GetListen(),
		Handler: makeServer(orchestrator, history, conf),
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()

		srv.Shutdown(shutdownCtx) // nolint: errcheck
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("cannot serve: %w", err)
	}

	return nil
}
