package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/geotrack/geotrack/geolib"
	"github.com/geotrack/geotrack/providers"
	"github.com/geotrack/geotrack/storage"
	"github.com/hjson/hjson-go"
)

const (
	DefaultListen                        = "127.0.0.1:8080"
	DefaultPublicIPTimeout               = 5 * time.Second
	DefaultCircuitBreakerHalfOpenTimeout = time.Minute
	DefaultCircuitBreakerResetTimeout    = 20 * time.Second
	DefaultCacheTTL                      = time.Hour
)

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var v interface{}

	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cannot unmarshal duration: %w", err)
	}

	vv, ok := v.(string)
	if !ok {
		return fmt.Errorf("incorrect duration: %v", v)
	}

	dur, err := time.ParseDuration(vv)
	if err != nil {
		return fmt.Errorf("cannot parse duration: %w", err)
	}

	d.Duration = dur

	return nil
}

type config struct {
	Listen           string           `json:"listen"`
	UserAgent        string           `json:"user_agent"`
	WorkerPoolSize   uint             `json:"worker_pool_size"`
	Fusion           string           `json:"fusion"`
	DefaultProvider  string           `json:"default_provider"`
	PublicIPServices []string         `json:"public_ip_services"`
	BasicAuth        configBasicAuth  `json:"basic_auth"`
	Database         configDatabase   `json:"database"`
	Cache            configCache      `json:"cache"`
	Providers        []configProvider `json:"providers"`
}

func (c config) GetListen() string {
	if c.Listen != "" {
		return c.Listen
	}

	return DefaultListen
}

func (c config) GetUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}

	return "geotrack/" + version
}

func (c config) GetWorkerPoolSize() int {
	if c.WorkerPoolSize == 0 {
		return geolib.DefaultWorkerPoolSize
	}

	return int(c.WorkerPoolSize)
}

func (c config) GetFusion() geolib.FusionStrategy {
	return geolib.FusionStrategy(c.Fusion)
}

func (c config) GetDefaultProvider() string {
	return c.DefaultProvider
}

func (c config) GetPublicIPServices() []string {
	return c.PublicIPServices
}

// GetProviders returns configured providers. If nothing is configured,
// every built-in provider is used.
func (c config) GetProviders() []configProvider {
	if len(c.Providers) > 0 {
		return c.Providers
	}

	rv := []configProvider{}

	for _, v := range providers.Configs() {
		rv = append(rv, configProvider{Name: v.Name})
	}

	return rv
}

type configBasicAuth struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

func (c configBasicAuth) Enabled() bool {
	return c.User != "" || c.Password != ""
}

type configDatabase struct {
	Driver   string `json:"driver"`
	DSN      string `json:"dsn"`
	Disabled bool   `json:"disabled"`
}

func (c configDatabase) GetDriver() string {
	if c.Driver != "" {
		return c.Driver
	}

	return storage.DriverSQLite
}

func (c configDatabase) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}

	return filepath.Join(home, ".geotrack", "tracking.db")
}

type configCache struct {
	Size uint     `json:"size"`
	TTL  duration `json:"ttl"`
}

func (c configCache) Enabled() bool {
	return c.Size > 0
}

func (c configCache) GetTTL() time.Duration {
	if c.TTL.Duration == 0 {
		return DefaultCacheTTL
	}

	return c.TTL.Duration
}

type configProvider struct {
	Name                               string            `json:"name"`
	URLTemplate                        string            `json:"url_template"`
	Fields                             map[string]string `json:"fields"`
	Headers                            map[string]string `json:"headers"`
	DatabasePath                       string            `json:"database_path"`
	Language                           string            `json:"language"`
	HTTPTimeout                        duration          `json:"http_timeout"`
	RateLimitInterval                  duration          `json:"rate_limit_interval"`
	RateLimitBurst                     uint              `json:"rate_limit_burst"`
	CircuitBreakerOpenThreshold        uint32            `json:"circuit_breaker_open_threshold"`
	CircuitBreakerHalfOpenTimeout      duration          `json:"circuit_breaker_half_open_timeout"`
	CircuitBreakerResetFailuresTimeout duration          `json:"circuit_breaker_reset_failures_timeout"`
}

func (c configProvider) GetName() string {
	return c.Name
}

// GetProviderConfig merges a built-in config of the same name with
// overrides from the file. Providers which are not built-in must
// define url_template and fields.
func (c configProvider) GetProviderConfig() (geolib.ProviderConfig, error) {
	conf, ok := providers.Config(c.Name)
	if !ok {
		conf = geolib.ProviderConfig{
			Name:   c.Name,
			Fields: map[string]string{},
		}
	}

	if c.URLTemplate != "" {
		conf.URLTemplate = c.URLTemplate
	}

	if len(c.Fields) > 0 {
		conf.Fields = c.Fields
	}

	if len(c.Headers) > 0 {
		conf.Headers = c.Headers
	}

	if err := conf.Validate(); err != nil {
		return conf, fmt.Errorf("incorrect config of provider %s: %w", c.Name, err)
	}

	return conf, nil
}

func (c configProvider) GetDatabasePath() string {
	return c.DatabasePath
}

func (c configProvider) GetLanguage() string {
	return c.Language
}

func (c configProvider) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeout.Duration == 0 {
		return geolib.DefaultHTTPTimeout
	}

	return c.HTTPTimeout.Duration
}

func (c configProvider) GetRateLimitInterval() time.Duration {
	if c.RateLimitInterval.Duration == 0 {
		return geolib.DefaultRateLimitInterval
	}

	return c.RateLimitInterval.Duration
}

func (c configProvider) GetRateLimitBurst() int {
	if c.RateLimitBurst == 0 {
		return geolib.DefaultRateLimitBurst
	}

	return int(c.RateLimitBurst)
}

func (c configProvider) GetCircuitBreakerOpenThreshold() uint32 {
	return c.CircuitBreakerOpenThreshold
}

func (c configProvider) GetCircuitBreakerHalfOpenTimeout() time.Duration {
	if c.CircuitBreakerHalfOpenTimeout.Duration == 0 {
		return DefaultCircuitBreakerHalfOpenTimeout
	}

	return c.CircuitBreakerHalfOpenTimeout.Duration
}

func (c configProvider) GetCircuitBreakerResetFailuresTimeout() time.Duration {
	if c.CircuitBreakerResetFailuresTimeout.Duration == 0 {
		return DefaultCircuitBreakerResetTimeout
	}

	return c.CircuitBreakerResetFailuresTimeout.Duration
}

func parseConfig(reader io.Reader) (*config, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	conf := config{}
	rawMap := map[string]interface{}{}

	if err := hjson.Unmarshal(content, &rawMap); err != nil {
		return nil, fmt.Errorf("cannot parse hjson: %w", err)
	}

	rawBytes, _ := json.Marshal(rawMap)

	if err := json.Unmarshal(rawBytes, &conf); err != nil {
		return nil, fmt.Errorf("incorrect config structure: %w", err)
	}

	return &conf, validateConfig(&conf)
}

func validateConfig(conf *config) error {
	if _, _, err := net.SplitHostPort(conf.GetListen()); err != nil {
		return fmt.Errorf("incorrect host:port for listen: %w", err)
	}

	if _, err := geolib.NewReconciler(conf.GetFusion()); err != nil {
		return fmt.Errorf("incorrect fusion: %w", err)
	}

	switch conf.Database.GetDriver() {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %s", conf.Database.GetDriver())
	}

	seenProviderNames := map[string]struct{}{}

	for _, v := range conf.GetProviders() {
		if v.GetName() == "" {
			return fmt.Errorf("provider name is empty")
		}

		if _, ok := seenProviderNames[v.GetName()]; ok {
			return fmt.Errorf("provider %s is duplicated", v.GetName())
		}

		seenProviderNames[v.GetName()] = struct{}{}

		if v.GetName() == providers.NameMaxmindLite {
			if v.GetDatabasePath() == "" {
				return fmt.Errorf("database_path is required for %s", v.GetName())
			}

			continue
		}

		if _, err := v.GetProviderConfig(); err != nil {
			return err
		}
	}

	if name := conf.GetDefaultProvider(); name != "" {
		if _, ok := seenProviderNames[name]; !ok {
			return fmt.Errorf("default provider %s is not configured", name)
		}
	}

	return nil
}
