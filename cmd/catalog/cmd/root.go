package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"catalog-backend/internal/components/chrono"
	"catalog-backend/internal/components/telemetry"
	"catalog-backend/internal/config"
	"catalog-backend/internal/pagecache"
	"catalog-backend/internal/pipeline"
	"catalog-backend/internal/scraper"
	"catalog-backend/internal/store"
	"catalog-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool

	cfg       config.Config
	tel       telemetry.API = telemetry.SlogAPI{}
	providers telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:          "catalog",
	Short:        "catalog scrapes the university course catalog and serves it read-only.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if debug {
			loaded.Debug = true
		}
		cfg = loaded

		telemetry.InitSlog(cfg.Debug)
		providers, err = telemetry.SetupFromEnv(cmd.Context(), "catalog")
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		tel = telemetry.NewMeterAPI(telemetry.SlogAPI{})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := providers.Shutdown(context.Background())
		if err != nil {
			tel.ReportWarning("telemetry.shutdown", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "Path to the configuration file.")
	rootCmd.PersistentFlags().BoolVarP(&debug, "verbose", "v", false, "Enable debug logging.")
}

func Execute() {
	err := rootCmd.ExecuteContext(serviceutil.SignalContext())
	if err != nil {
		serviceutil.Fatal("catalog", err)
	}
}

func dataStore() store.Store {
	return store.New(cfg.DataDir)
}

// newRunner wires the scraper, the optional page cache and the store
// together, release closes the page cache.
func newRunner() (runner pipeline.Runner, release func(), err error) {
	release = func() {}

	var cache scraper.PageCache
	if cfg.Cache.Dir != "" {
		opened, err := pagecache.Open(cfg.Cache.Dir, cfg.CacheTtl(), chrono.StandardTime{}, tel)
		if err != nil {
			return pipeline.Runner{}, nil, fmt.Errorf("open page cache: %w", err)
		}
		cache = opened
		release = func() {
			err := opened.Close()
			if err != nil {
				tel.ReportWarning("pagecache.close", err)
			}
		}
	}

	fetcher, err := scraper.FetcherFromConfig(cfg, cache, tel)
	if err != nil {
		release()
		return pipeline.Runner{}, nil, err
	}
	s := scraper.NewScraper(fetcher, scraper.Options{
		RootUrl:    cfg.RootURL(),
		CatalogUrl: cfg.CatalogURL(),
		Workers:    cfg.Workers,
	}, tel)

	return pipeline.NewRunner(s, dataStore(), chrono.StandardTime{}, tel), release, nil
}
