package cmd

import (
	"fmt"
	"strings"

	"catalog-backend/cmd/catalog/utils"
	"catalog-backend/internal/catalog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var showLimit int

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 0, "Only print the first n records, 0 prints everything.")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:       "show <faculties|subjects|courses|schedules>",
	Short:     "Prints a summary of a scraped document.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"faculties", "subjects", "courses", "schedules"},
	RunE: func(cmd *cobra.Command, args []string) error {
		t := utils.NewTable()
		st := dataStore()

		var total int
		switch strings.ToLower(args[0]) {
		case "faculties":
			faculties, err := st.Faculties()
			if err != nil {
				return err
			}
			t.AppendHeader(table.Row{"Code", "Name", "Link"})
			for _, code := range limit(utils.SortedKeys(faculties)) {
				f := faculties[code]
				t.AppendRow(table.Row{code, f.Name, f.Link})
			}
			total = len(faculties)
		case "subjects":
			subjects, err := st.Subjects()
			if err != nil {
				return err
			}
			t.AppendHeader(table.Row{"Code", "Name", "Faculties"})
			for _, code := range limit(utils.SortedKeys(subjects)) {
				s := subjects[code]
				t.AppendRow(table.Row{code, s.Name, strings.Join(s.Faculties, ", ")})
			}
			total = len(subjects)
		case "courses":
			courses, err := st.Courses()
			if err != nil {
				return err
			}
			t.AppendHeader(table.Row{"Code", "Name", "Units", "Schedule", "Hours", "Prerequisites"})
			for _, code := range limit(utils.SortedKeys(courses)) {
				c := courses[code]
				t.AppendRow(table.Row{
					code,
					c.Name,
					optional(c.Units),
					optional(c.Schedule),
					fmt.Sprintf("%s-%s-%s", optional(c.LectureHours), optional(c.SeminarHours), optional(c.LabHours)),
					c.Prerequisites != nil,
				})
			}
			total = len(courses)
		case "schedules":
			schedules, err := st.Schedules()
			if err != nil {
				return err
			}
			t.AppendHeader(table.Row{"Code", "Status", "Terms", "Meetings"})
			for _, code := range limit(utils.SortedKeys(schedules)) {
				t.AppendRow(scheduleRow(code, schedules[code]))
			}
			total = len(schedules)
		default:
			return fmt.Errorf("unknown document %q", args[0])
		}

		t.AppendFooter(table.Row{"Total", total})
		t.Render()
		return nil
	},
}

func scheduleRow(code string, schedule catalog.Schedule) table.Row {
	if !schedule.IsOffered() {
		return table.Row{code, schedule.Status, "", ""}
	}
	meetings := 0
	for _, term := range schedule.Terms {
		for _, classType := range term {
			meetings += len(classType)
		}
	}
	return table.Row{code, "offered", strings.Join(utils.SortedKeys(schedule.Terms), ", "), meetings}
}

func limit(keys []string) []string {
	if showLimit > 0 && len(keys) > showLimit {
		return keys[:showLimit]
	}
	return keys
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
