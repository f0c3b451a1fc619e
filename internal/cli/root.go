// Package cli is the iqamah command line: it answers timetable questions
// with the same engine the server uses.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/store"
	"github.com/Nixie-Tech-LLC/iqamah/internal/timetable"
)

// Runtime is what the commands run against.
type Runtime struct {
	Service *timetable.Service
	Writer  store.Writer
	Close   func() error
}

// Builder constructs the runtime once flags are parsed.
type Builder func(ctx context.Context) (*Runtime, error)

type flags struct {
	mosque string
	date   string
	json   bool
}

type root struct {
	build Builder
	flags flags
	rt    *Runtime
}

// NewRootCmd creates the iqamah command tree.
func NewRootCmd(version string, build Builder) *cobra.Command {
	r := &root{build: build}

	cmd := &cobra.Command{
		Use:     "iqamah",
		Short:   "Mosque adhan and iqamah times",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := r.build(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			r.rt = rt
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if r.rt != nil && r.rt.Close != nil {
				return r.rt.Close()
			}
			return nil
		},
		RunE:          r.runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&r.flags.mosque, "mosque", "m", os.Getenv("IQAMAH_MOSQUE"), "Mosque slug (default $IQAMAH_MOSQUE)")
	pf.StringVar(&r.flags.date, "date", "", "Date as YYYY-MM-DD (default today)")
	pf.BoolVar(&r.flags.json, "json", false, "Output as JSON")

	cmd.AddCommand(r.newTodayCmd())
	cmd.AddCommand(r.newDayCmd())
	cmd.AddCommand(r.newNextCmd())
	cmd.AddCommand(r.newIqamahCmd())
	cmd.AddCommand(r.newImportCmd())
	return cmd
}

func (r *root) slug() (string, error) {
	if strings.TrimSpace(r.flags.mosque) == "" {
		return "", errors.New("--mosque is required")
	}
	return r.flags.mosque, nil
}

func (r *root) date() (time.Time, error) {
	if r.flags.date == "" {
		return r.rt.Service.Today(), nil
	}
	d, err := calendar.ParseDay(r.flags.date, r.rt.Service.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("--date: %w", err)
	}
	return d, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// explain turns a RAMADAN_ONLY failure into a sentence.
func explain(err error) error {
	if r, ok := timetable.IsRamadanOnly(err); ok {
		return fmt.Errorf("this mosque only publishes times during Ramadan (%s)", r)
	}
	return err
}
