package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
	"github.com/Nixie-Tech-LLC/iqamah/internal/timetable"
)

func (r *root) newImportCmd() *cobra.Command {
	var (
		kind  string
		month string
		year  int
	)
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Validate a calendar document and store it",
		Long:  "Validate a monthly or Ramadan calendar JSON document and write it to the configured calendar store.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug, err := r.slug()
			if err != nil {
				return err
			}
			if r.rt.Writer == nil {
				return errors.New("no writable calendar store configured")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch kind {
			case timetable.SourceMonthly:
				if month == "" || year == 0 {
					return errors.New("--month and --year are required for monthly calendars")
				}
				var doc model.MonthlyPrayerTimes
				if err := json.Unmarshal(data, &doc); err != nil {
					return fmt.Errorf("decode %s: %w", args[0], err)
				}
				if len(doc.PrayerTimes) == 0 {
					return errors.New("prayer_times must not be empty")
				}
				if _, err := timetable.NewMonthlyCalendar(doc); err != nil {
					return err
				}
				month = strings.ToLower(month)
				if err := r.rt.Writer.PutMonthly(cmd.Context(), slug, month, year, doc); err != nil {
					return err
				}
				fmt.Fprintf(out, "stored %s %d for %s (%d days sampled)\n", month, year, slug, len(doc.PrayerTimes))
			case timetable.SourceRamadan:
				var doc model.RamadanTimetable
				if err := json.Unmarshal(data, &doc); err != nil {
					return fmt.Errorf("decode %s: %w", args[0], err)
				}
				cal, err := timetable.NewRamadanCalendar(doc, r.rt.Service.Location())
				if err != nil {
					return err
				}
				if err := r.rt.Writer.PutRamadan(cmd.Context(), slug, doc); err != nil {
					return err
				}
				fmt.Fprintf(out, "stored ramadan %s for %s\n", cal.Range(), slug)
			default:
				return fmt.Errorf("--kind must be %q or %q", timetable.SourceMonthly, timetable.SourceRamadan)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", timetable.SourceMonthly, "Calendar kind: monthly or ramadan")
	cmd.Flags().StringVar(&month, "month", "", "Month name for monthly calendars, e.g. march")
	cmd.Flags().IntVar(&year, "year", 0, "Year for monthly calendars")
	return cmd
}
