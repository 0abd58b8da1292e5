package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/geotrack/geotrack/geolib"
	"github.com/geotrack/geotrack/providers"
	"github.com/geotrack/geotrack/storage"
	"github.com/joho/godotenv"
)

const envFileVariable = "GEOTRACK_ENV_FILE"

func makeRootContext() (context.Context, context.CancelFunc) {
	rootCtx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)

	go func() {
		for range sigChan {
			cancel()
		}
	}()

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	return rootCtx, cancel
}

// loadEnv populates environment from .env file (or a file from
// GEOTRACK_ENV_FILE). Missing file is not an error.
func loadEnv() error {
	path := os.Getenv(envFileVariable)
	if path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load env file %s: %w", path, err)
	}

	return nil
}

func makeProviders(conf *config) ([]geolib.Provider, []io.Closer, error) {
	rv := make([]geolib.Provider, 0, len(conf.GetProviders()))
	closers := []io.Closer{}

	for _, v := range conf.GetProviders() {
		var prov geolib.Provider

		switch v.GetName() {
		case providers.NameMaxmindLite:
			maxmind, err := providers.NewMaxmind(v.GetDatabasePath(), v.GetLanguage())
			if err != nil {
				closeAll(closers)

				return nil, nil, fmt.Errorf("cannot create maxmind provider: %w", err)
			}

			closers = append(closers, maxmind)
			prov = maxmind
		default:
			providerConfig, err := v.GetProviderConfig()
			if err != nil {
				closeAll(closers)

				return nil, nil, err
			}

			prov, err = geolib.NewHTTPProvider(providerConfig, makeNewHTTPClient(conf, v))
			if err != nil {
				closeAll(closers)

				return nil, nil, fmt.Errorf("cannot create %s provider: %w", v.GetName(), err)
			}
		}

		if conf.Cache.Enabled() {
			prov = geolib.NewCachingProvider(prov, conf.Cache.Size, conf.Cache.GetTTL())
		}

		rv = append(rv, prov)
	}

	return rv, closers, nil
}

func makeNewHTTPClient(conf *config, provConf configProvider) geolib.HTTPClient {
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}

	httpClient := &http.Client{
		Timeout: provConf.GetHTTPTimeout(),
		Jar:     jar,
	}

	return geolib.NewHTTPClient(httpClient,
		conf.GetUserAgent(),
		provConf.GetRateLimitInterval(),
		provConf.GetRateLimitBurst(),
		provConf.GetCircuitBreakerOpenThreshold(),
		provConf.GetCircuitBreakerHalfOpenTimeout(),
		provConf.GetCircuitBreakerResetFailuresTimeout())
}

func makePublicIPResolver(conf *config) geolib.PublicIPResolver {
	client := geolib.NewHTTPClient(&http.Client{Timeout: DefaultPublicIPTimeout},
		conf.GetUserAgent(),
		0,
		0,
		0,
		0,
		0)

	return providers.NewPublicIPResolver(client, conf.GetPublicIPServices())
}

func makeStore(ctx context.Context, conf *config) (*storage.Store, error) {
	if conf.Database.Disabled {
		return nil, nil
	}

	return storage.Open(ctx, conf.Database.GetDriver(), conf.Database.GetDSN())
}

func makeOrchestrator(conf *config, logger geolib.Logger, store *storage.Store, provs []geolib.Provider) (*geolib.Orchestrator, error) {
	registry, err := geolib.NewRegistry(provs, conf.GetDefaultProvider())
	if err != nil {
		return nil, fmt.Errorf("cannot create provider registry: %w", err)
	}

	reconciler, err := geolib.NewReconciler(conf.GetFusion())
	if err != nil {
		return nil, fmt.Errorf("cannot create reconciler: %w", err)
	}

	opts := geolib.Opts{
		Registry:       registry,
		Reconciler:     reconciler,
		Logger:         logger,
		PublicIP:       makePublicIPResolver(conf),
		WorkerPoolSize: conf.GetWorkerPoolSize(),
	}

	// a typed nil pointer must not become a non-nil interface
	if store != nil {
		opts.Store = store
	}

	return geolib.NewOrchestrator(opts)
}

// readQueries reads one address per line. Empty lines and lines
// starting with # are skipped.
func readQueries(reader io.Reader) ([]string, error) {
	rv := []string{}
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rv = append(rv, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read addresses: %w", err)
	}

	return rv, nil
}

func closeAll(closers []io.Closer) {
	for _, v := range closers {
		v.Close()
	}
}
