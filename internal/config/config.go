package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"catalog-backend/lib/configutil"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
)

const (
	DefaultRootUrl     = "https://apps.ualberta.ca"
	DefaultCatalogPath = "/catalogue"
	DefaultDataDir     = "data"
	DefaultWorkers     = 10
)

// HttpConfig configures the fetcher. Durations are strings accepted by
// time.ParseDuration.
type HttpConfig struct {
	UserAgent               string  `json:"user_agent"`
	Timeout                 string  `json:"timeout"`
	MinDelay                string  `json:"min_delay"`
	MaxDelay                string  `json:"max_delay"`
	MaxAttempts             int     `json:"max_attempts"`
	DefaultBackoff          string  `json:"default_backoff"`
	MaxRequestsPerSecond    float64 `json:"max_requests_per_second"`
	DisableCloudflareBypass bool    `json:"disable_cloudflare_bypass"`
	// DumpDir, when set, receives a text file per response for debugging
	// selector drift.
	DumpDir string `json:"dump_dir"`
}

// CacheConfig configures the on-disk page cache, an empty Dir disables it.
type CacheConfig struct {
	Dir string `json:"dir"`
	Ttl string `json:"ttl"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	CacheTtl string `json:"cache_ttl"`
	Rescrape string `json:"rescrape"`
}

type Config struct {
	RootUrl     string       `json:"root_url"`
	CatalogPath string       `json:"catalog_path"`
	DataDir     string       `json:"data_dir"`
	Workers     int          `json:"workers"`
	Http        HttpConfig   `json:"http"`
	Cache       CacheConfig  `json:"cache"`
	Server      ServerConfig `json:"server"`
	Debug       bool         `json:"debug"`
}

// Default returns the configuration used for every field that is left unset.
func Default() Config {
	return Config{
		RootUrl:     DefaultRootUrl,
		CatalogPath: DefaultCatalogPath,
		DataDir:     DefaultDataDir,
		Workers:     DefaultWorkers,
		Http: HttpConfig{
			UserAgent:      "Mozilla/5.0",
			Timeout:        "30s",
			MinDelay:       "1s",
			MaxDelay:       "3s",
			MaxAttempts:    3,
			DefaultBackoff: "5s",
		},
		Cache: CacheConfig{
			Ttl: "24h",
		},
		Server: ServerConfig{
			Port:     8080,
			CacheTtl: "1m",
		},
	}
}

// Load reads the config at path (plus its local override), environment
// overrides from `.env.local` and fills in defaults. A missing config file
// is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load(".env.local")

	config, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if dir := os.Getenv("CATALOG_DATA_DIR"); dir != "" {
		config.DataDir = dir
	}
	if os.Getenv("CATALOG_DEBUG") != "" {
		config.Debug = true
	}

	err = mergo.Merge(&config, Default())
	if err != nil {
		return Config{}, err
	}
	err = config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	_, err := url.Parse(c.RootUrl)
	if err != nil {
		return fmt.Errorf("root_url: %w", err)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Http.MaxAttempts <= 0 {
		return fmt.Errorf("http.max_attempts must be positive, got %d", c.Http.MaxAttempts)
	}
	for name, value := range map[string]string{
		"http.timeout":         c.Http.Timeout,
		"http.min_delay":       c.Http.MinDelay,
		"http.max_delay":       c.Http.MaxDelay,
		"http.default_backoff": c.Http.DefaultBackoff,
		"cache.ttl":            c.Cache.Ttl,
		"server.cache_ttl":     c.Server.CacheTtl,
	} {
		_, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.MinDelay() > c.MaxDelay() {
		return fmt.Errorf("http.min_delay (%s) is larger than http.max_delay (%s)", c.Http.MinDelay, c.Http.MaxDelay)
	}
	return nil
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func (c Config) Timeout() time.Duration        { return mustDuration(c.Http.Timeout) }
func (c Config) MinDelay() time.Duration       { return mustDuration(c.Http.MinDelay) }
func (c Config) MaxDelay() time.Duration       { return mustDuration(c.Http.MaxDelay) }
func (c Config) DefaultBackoff() time.Duration { return mustDuration(c.Http.DefaultBackoff) }
func (c Config) CacheTtl() time.Duration       { return mustDuration(c.Cache.Ttl) }
func (c Config) ServerCacheTtl() time.Duration { return mustDuration(c.Server.CacheTtl) }

// RootURL returns the parsed site root.
func (c Config) RootURL() *url.URL {
	u, err := url.Parse(c.RootUrl)
	if err != nil {
		return &url.URL{}
	}
	return u
}

// CatalogURL returns the catalog page resolved against the site root.
func (c Config) CatalogURL() string {
	return c.RootURL().JoinPath(c.CatalogPath).String()
}
