// Command saju is the terminal front end of the chart engine.
//
// Usage:
//
//	saju analyze "1990-02-04 11:14" --gender male --location Seoul --seasonal
//	saju annual --birth-year 1990 --start-age 35 --day-stem 庚
//	saju monthly --year 2024 --day-stem 庚
//	saju month 2024 8
//
// Tables, correction profile and engine options come from the same
// environment variables as the API server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/saju-api/internal/bootstrap"
	"github.com/zapponejosh/saju-api/internal/calendar"
	"github.com/zapponejosh/saju-api/internal/config"
	"github.com/zapponejosh/saju-api/internal/engine"
	"github.com/zapponejosh/saju-api/internal/ganzi"
	"github.com/zapponejosh/saju-api/internal/logger"
)

func main() {
	a := &app{out: os.Stdout, load: loadFromEnv}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", engine.Kind(err), err)
		os.Exit(1)
	}
}

// app carries the state shared by all commands.
type app struct {
	out     io.Writer
	jsonOut bool
	verbose bool
	load    func(ctx context.Context, verbose bool) (*bootstrap.Runtime, error)
	rt      *bootstrap.Runtime
}

// loadFromEnv reads the configuration and loads the tables. Logs go to
// stderr so they never mix with chart output.
func loadFromEnv(ctx context.Context, verbose bool) (*bootstrap.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := "warn"
	if verbose {
		level = cfg.LogLevel
	}
	return bootstrap.Load(ctx, cfg, logger.New(os.Stderr, level, cfg.LogFormat))
}

// emit writes v as indented JSON or as the rendered text.
func (a *app) emit(v any, text func() string) error {
	if a.jsonOut {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprint(a.out, text())
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "saju",
		Short:         "Four pillars chart engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.load(cmd.Context(), a.verbose)
			if err != nil {
				return err
			}
			a.rt = rt
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.rt.Close()
		},
	}
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of a table")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log table loading")

	root.AddCommand(
		newAnalyzeCmd(a),
		newAnnualCmd(a),
		newMonthlyCmd(a),
		newMonthCmd(a),
	)
	return root
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		gender, location, cal, boundary, asOf string
		longitude                             float64
		combine, seasonal, apparent           bool
	)
	cmd := &cobra.Command{
		Use:   `analyze "YYYY-MM-DD HH:MM"`,
		Short: "Build and diagnose a chart for a birth moment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := engine.Input{
				Moment:                args[0],
				Location:              location,
				CombinationCorrection: combine,
				SeasonalCorrection:    seasonal,
				ApparentSolarTime:     apparent,
			}
			var err error
			if in.Gender, err = engine.ParseGender(gender); err != nil {
				return err
			}
			if in.Calendar, err = calendar.ParseType(cal); err != nil {
				return err
			}
			if in.BoundaryPolicy, err = calendar.ParseBoundaryPolicy(boundary); err != nil {
				return err
			}
			if cmd.Flags().Changed("longitude") {
				in.Longitude = &longitude
			}
			if asOf != "" {
				if in.AsOf, err = time.Parse("2006-01-02", asOf); err != nil {
					return fmt.Errorf("%w: --as-of %q, use YYYY-MM-DD", engine.ErrMalformedInput, asOf)
				}
			}

			res, err := a.rt.Engine.Analyze(in)
			if err != nil {
				return err
			}
			return a.emit(res, func() string { return renderAnalysis(res) })
		},
	}
	f := cmd.Flags()
	f.StringVarP(&gender, "gender", "g", "", "male or female (required)")
	f.StringVarP(&location, "location", "l", "", "location name from the correction profile")
	f.Float64Var(&longitude, "longitude", 0, "longitude in degrees east, overrides --location")
	f.StringVarP(&cal, "calendar", "c", "solar", "solar, lunar or lunar-leap")
	f.StringVar(&boundary, "boundary", "keep-day", "late 子 hour policy: keep-day or roll-day")
	f.BoolVar(&combine, "combine", false, "apply combination correction")
	f.BoolVar(&seasonal, "seasonal", false, "apply seasonal correction")
	f.BoolVar(&apparent, "apparent", false, "apply the equation of time")
	f.StringVar(&asOf, "as-of", "", "add age, luck period and pillars for this date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("gender")
	return cmd
}

func parseStemFlag(v string) (ganzi.Stem, error) {
	s, err := ganzi.ParseStem(v)
	if err != nil {
		return 0, fmt.Errorf("%w: --day-stem: %v", engine.ErrMalformedInput, err)
	}
	return s, nil
}

func newAnnualCmd(a *app) *cobra.Command {
	var birthYear, startAge int
	var stem string
	cmd := &cobra.Command{
		Use:   "annual",
		Short: "List ten years of annual pillars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseStemFlag(stem)
			if err != nil {
				return err
			}
			entries, err := a.rt.Engine.AnnualCycle(birthYear, startAge, s)
			if err != nil {
				return err
			}
			return a.emit(entries, func() string { return renderAnnual(entries) })
		},
	}
	cmd.Flags().IntVar(&birthYear, "birth-year", 0, "civil birth year (required)")
	cmd.Flags().IntVar(&startAge, "start-age", 1, "first age listed, Korean reckoning")
	cmd.Flags().StringVar(&stem, "day-stem", "", "day stem, e.g. 庚 or 경 (required)")
	_ = cmd.MarkFlagRequired("birth-year")
	_ = cmd.MarkFlagRequired("day-stem")
	return cmd
}

func newMonthlyCmd(a *app) *cobra.Command {
	var year int
	var stem string
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "List the twelve month pillars of a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseStemFlag(stem)
			if err != nil {
				return err
			}
			entries, err := a.rt.Engine.MonthlyCycle(year, s)
			if err != nil {
				return err
			}
			return a.emit(entries, func() string { return renderMonthly(entries) })
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year starting at its Spring Begins term (required)")
	cmd.Flags().StringVar(&stem, "day-stem", "", "day stem, e.g. 庚 or 경 (required)")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("day-stem")
	return cmd
}

func newMonthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "month YEAR MONTH",
		Short: "Show a civil month with day pillars, lunar dates and solar terms",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: year %q", engine.ErrMalformedInput, args[0])
			}
			month, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: month %q", engine.ErrMalformedInput, args[1])
			}
			v, err := a.rt.Engine.MonthView(year, month)
			if err != nil {
				return err
			}
			return a.emit(v, func() string { return renderMonth(v) })
		},
	}
}
