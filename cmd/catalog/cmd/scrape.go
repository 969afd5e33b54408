package cmd

import (
	"time"

	"catalog-backend/cmd/catalog/utils"
	"catalog-backend/internal/pipeline"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:       "scrape <faculties|subjects|courses|schedules|all>",
	Short:     "Runs a stage of the scraper and replaces its document in the data dir.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"faculties", "subjects", "courses", "schedules", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, err := pipeline.ParseStage(args[0])
		if err != nil {
			return err
		}

		runner, release, err := newRunner()
		if err != nil {
			return err
		}
		defer release()

		result, err := runner.Run(cmd.Context(), stage)
		if err != nil {
			return err
		}

		t := utils.NewTable()
		t.SetTitle("run " + result.RunId)
		t.AppendHeader(table.Row{"Stage", "Records", "Duration"})
		for _, s := range result.Stages {
			t.AppendRow(table.Row{s.Stage, s.Count, s.Duration.Round(time.Millisecond)})
		}
		t.Render()
		return nil
	},
}
