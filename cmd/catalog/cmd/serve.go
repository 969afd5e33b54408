package cmd

import (
	"catalog-backend/internal/catalogapi"
	"catalog-backend/internal/components/chrono"
	"catalog-backend/internal/components/telemetry"
	"catalog-backend/internal/pipeline"
	"catalog-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	servePort    int
	rescrapeSpec string
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on, overrides server.port.")
	serveCmd.Flags().StringVar(&rescrapeSpec, "rescrape", "", "Cron spec to re-run every stage on, overrides server.rescrape.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the scraped documents over http.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		spec := cfg.Server.Rescrape
		if cmd.Flags().Changed("rescrape") {
			spec = rescrapeSpec
		}

		telemetry.InstrumentPerfStats(ctx, tel)

		if spec != "" {
			runner, release, err := newRunner()
			if err != nil {
				return err
			}
			defer release()

			cron := chrono.NewStandardCron(tel)
			defer cron.Stop()
			err = cron.Cron(spec, func() {
				result, err := runner.Run(ctx, pipeline.StageAll)
				if err != nil {
					tel.ReportBroken("serve.rescrape", err, result.RunId)
					return
				}
				tel.ReportDebug("rescrape finished", result.RunId)
			})
			if err != nil {
				return err
			}
		}

		c := catalogapi.New(dataStore(), cfg.ServerCacheTtl(), tel)
		return serviceutil.StartHttpServer(ctx, port, catalogapi.NewHandler(c, tel))
	},
}
