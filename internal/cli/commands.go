package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/countdown"
	"github.com/Nixie-Tech-LLC/iqamah/internal/iqamah"
	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
)

func (r *root) newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show the board for a day",
		Args:  cobra.NoArgs,
		RunE:  r.runToday,
	}
}

func (r *root) runToday(cmd *cobra.Command, _ []string) error {
	slug, err := r.slug()
	if err != nil {
		return err
	}
	day, err := r.date()
	if err != nil {
		return err
	}
	board, err := r.rt.Service.Board(cmd.Context(), slug, slug, day)
	if err != nil {
		return explain(err)
	}

	out := cmd.OutOrStdout()
	if r.flags.json {
		return writeJSON(out, board)
	}
	fmt.Fprintf(out, "%s  (%s)\n", board.Date, board.Source)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRAYER\tADHAN\tIQAMAH")
	for _, p := range board.Prayers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Adhan, p.Iqamah)
	}
	if board.Jummah != "" {
		fmt.Fprintf(tw, "JUMMAH\t\t%s\n", board.Jummah)
	}
	return tw.Flush()
}

func (r *root) newDayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "day",
		Short: "Show stored and resolved times for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			slug, err := r.slug()
			if err != nil {
				return err
			}
			day, err := r.date()
			if err != nil {
				return err
			}
			res, err := r.rt.Service.ResolveDay(cmd.Context(), slug, day)
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			if r.flags.json {
				return writeJSON(out, map[string]any{
					"slug":          res.Slug,
					"source":        res.Source,
					"prayers":       res.Prayers,
					"iqamah":        res.Stored(),
					"dst_adjusting": res.DSTAdjusting,
					"ramadan_day":   res.RamadanDay,
				})
			}

			fmt.Fprintf(out, "%s  %s  (%s)\n", res.Slug, calendar.FormatDisplayDate(res.Date), res.Source)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PRAYER\tADHAN\tSTORED\tIQAMAH")
			for _, p := range []string{iqamah.Fajr, iqamah.Dhuhr, iqamah.Asr, iqamah.Maghrib, iqamah.Isha} {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", strings.ToUpper(p), res.Adhan(p), stored(res.Stored(), p), res.IqamahFor(p))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if res.DSTAdjusting {
				fmt.Fprintln(out, "clocks change soon: iqamah times follow the adjusted calendar")
			}
			return nil
		},
	}
}

func (r *root) newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next adhan or iqamah with a countdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			slug, err := r.slug()
			if err != nil {
				return err
			}
			now := r.rt.Service.Now()
			day, err := r.rt.Service.CountdownDay(cmd.Context(), slug, now)
			if err != nil {
				return explain(err)
			}
			p := countdown.Project(day, now)

			out := cmd.OutOrStdout()
			if r.flags.json {
				return writeJSON(out, p)
			}
			kind := "adhan"
			if p.IsIqamahCountdown {
				kind = "iqamah"
			}
			fmt.Fprintf(out, "%s %s at %s (in %02d:%02d:%02d)\n", p.Next.Name, kind, p.Next.Time,
				p.Countdown.Hours, p.Countdown.Minutes, p.Countdown.Seconds)
			if p.Current != "" {
				fmt.Fprintf(out, "current: %s\n", p.Current)
			}
			return nil
		},
	}
}

func (r *root) newIqamahCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "iqamah <prayer>",
		Short:     "Print one prayer's iqamah time",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{iqamah.Fajr, iqamah.Dhuhr, iqamah.Asr, iqamah.Maghrib, iqamah.Isha, iqamah.Jummah},
		RunE: func(cmd *cobra.Command, args []string) error {
			slug, err := r.slug()
			if err != nil {
				return err
			}
			day, err := r.date()
			if err != nil {
				return err
			}
			v, err := r.rt.Service.IqamahFor(cmd.Context(), slug, strings.ToLower(args[0]), day)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func stored(d model.DailyIqamahTimes, prayer string) string {
	switch prayer {
	case iqamah.Fajr:
		return d.Fajr
	case iqamah.Dhuhr:
		return d.Dhuhr
	case iqamah.Asr:
		return d.Asr
	case iqamah.Maghrib:
		return d.Maghrib
	case iqamah.Isha:
		return d.Isha
	}
	return d.Jummah
}
