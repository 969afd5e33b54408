package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"catalog-backend/internal/catalogapi"
	"catalog-backend/internal/components/chrono"
	"catalog-backend/internal/db"
	"catalog-backend/internal/ical"

	"github.com/spf13/cobra"
)

var (
	exportDsn string

	icalCourse string
	icalTerm   string
	icalFirst  string
	icalLast   string
	icalOut    string
)

func init() {
	exportSqliteCmd.Flags().StringVar(&exportDsn, "db", "catalog.db", "sqlite file or libsql:// url to export into.")

	exportIcalCmd.Flags().StringVar(&icalCourse, "course", "", "Course code, ex. CMPUT404.")
	exportIcalCmd.Flags().StringVar(&icalTerm, "term", "", "Term label, ex. Fall2024.")
	exportIcalCmd.Flags().StringVar(&icalFirst, "start", "", "First day of classes (YYYY-MM-DD).")
	exportIcalCmd.Flags().StringVar(&icalLast, "end", "", "Last day of classes (YYYY-MM-DD).")
	exportIcalCmd.Flags().StringVar(&icalOut, "out", "", "File to write to, stdout when empty.")
	for _, name := range []string{"course", "term", "start", "end"} {
		exportIcalCmd.MarkFlagRequired(name)
	}

	exportCmd.AddCommand(exportSqliteCmd)
	exportCmd.AddCommand(exportIcalCmd)
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exports scraped documents into other formats.",
}

var exportSqliteCmd = &cobra.Command{
	Use:   "sqlite",
	Short: "Replaces the contents of a sql database with every scraped document.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := dataStore()
		records := db.Records{}
		var err error
		records.Faculties, err = st.Faculties()
		if err != nil {
			return err
		}
		records.Subjects, err = st.Subjects()
		if err != nil {
			return err
		}
		records.Courses, err = st.Courses()
		if err != nil {
			return err
		}
		records.Schedules, err = st.Schedules()
		if err != nil {
			return err
		}

		database, err := db.Open(exportDsn)
		if err != nil {
			return err
		}
		defer database.Close()

		err = db.Export(cmd.Context(), db.NewMakeTx(database), records)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		tel.ReportCount("export.courses", int64(len(records.Courses)))
		return nil
	},
}

var exportIcalCmd = &cobra.Command{
	Use:   "ical",
	Short: "Writes the meetings of a course in one term as a weekly recurring calendar.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		first, err := time.Parse(time.DateOnly, icalFirst)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		last, err := time.Parse(time.DateOnly, icalLast)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}

		c := catalogapi.New(dataStore(), 0, tel)
		offering, err := c.Term(icalCourse, icalTerm)
		if err != nil {
			return err
		}
		opts := ical.Options{
			CourseCode: strings.ToUpper(icalCourse),
			Term:       icalTerm,
			First:      first,
			Last:       last,
			Now:        chrono.StandardTime{}.Now(),
		}
		course, err := c.Course(icalCourse)
		if err == nil {
			opts.CourseName = course.Name
		}

		cal, err := ical.Build(offering, opts)
		if err != nil {
			return err
		}

		if icalOut == "" {
			_, err = os.Stdout.WriteString(cal.Serialize())
			return err
		}
		return os.WriteFile(icalOut, []byte(cal.Serialize()), 0644)
	},
}
