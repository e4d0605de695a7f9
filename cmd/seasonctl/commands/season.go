package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nursery-platform/internal/season"
)

const dateLayout = "2006-01-02"

// day resolves a --date flag in the region time zone, defaulting to today
func (o *options) day(raw string) (time.Time, error) {
	if raw == "" {
		return o.seasons.Today(o.region), nil
	}
	d, err := time.ParseInLocation(dateLayout, raw, o.seasons.Location(o.region))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return d, nil
}

func (o *options) print(w io.Writer, v interface{}, text func()) error {
	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}

func rule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("─", 64))
}

func nowCmd(opts *options) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "now",
		Short: "Show the season of today or of --date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := opts.day(date)
			if err != nil {
				return err
			}
			info := opts.seasons.At(context.Background(), day, opts.region, opts.seasons.Language(opts.lang))

			w := cmd.OutOrStdout()
			return opts.print(w, info, func() {
				rule(w)
				fmt.Fprintf(w, "%s (%s)\n", info.SeasonName, info.Region)
				rule(w)
				fmt.Fprintf(w, "Month:       %s\n", info.MonthName)
				fmt.Fprintf(w, "Season:      %s to %s\n", info.StartDate.Format(dateLayout), info.EndDate.Format(dateLayout))
				fmt.Fprintf(w, "Watering:    x%.1f\n", info.WateringMultiplier)
				if info.NextSeasonChange.Resolved {
					fmt.Fprintf(w, "Next change: %s on %s (%d days)\n", info.NextSeasonChange.Season,
						info.NextSeasonChange.Date.Format(dateLayout), info.NextSeasonChange.DaysUntil)
				}
				fmt.Fprintln(w)
				for _, rec := range info.Recommendations {
					fmt.Fprintf(w, "  • %s\n", rec)
				}
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date to classify (YYYY-MM-DD)")
	return cmd
}

func calendarCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar",
		Short: "Print the season of every month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			region, months := opts.seasons.Calendar(opts.region, opts.seasons.Language(opts.lang))

			w := cmd.OutOrStdout()
			return opts.print(w, struct {
				Region string                 `json:"region"`
				Months []season.CalendarMonth `json:"months"`
			}{region, months}, func() {
				fmt.Fprintf(w, "Calendar: %s\n", region)
				rule(w)
				for _, m := range months {
					fmt.Fprintf(w, "%2d  %-12s %s\n", m.Month, m.MonthName, m.SeasonName)
				}
			})
		},
	}
}

func previewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "preview MONTH",
		Short: "Show the season a nursery starting in MONTH (1-12) begins in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid month %q", args[0])
			}
			preview, err := opts.seasons.Preview(month, opts.region, opts.seasons.Language(opts.lang))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			return opts.print(w, preview, func() {
				fmt.Fprintf(w, "%s: %s (%s)\n", preview.MonthName, preview.SeasonName, preview.Region)
				for _, rec := range preview.Recommendations {
					fmt.Fprintf(w, "  • %s\n", rec)
				}
			})
		},
	}
}

func regionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the configured regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			regions := opts.seasons.Regions()
			defaultRegion := opts.seasons.Engine().DefaultRegion()

			w := cmd.OutOrStdout()
			return opts.print(w, regions, func() {
				for _, r := range regions {
					marker := " "
					if r.ID == defaultRegion {
						marker = "*"
					}
					fmt.Fprintf(w, "%s %-16s %-16s dry %d-%d  rainy %d-%d  %s\n", marker, r.ID, r.Name,
						r.DrySeason.StartMonth, r.DrySeason.EndMonth,
						r.RainySeason.StartMonth, r.RainySeason.EndMonth, r.Timezone)
				}
			})
		},
	}
}

func wateringCmd(opts *options) *cobra.Command {
	var date string
	var dryDays, rainyDays int

	cmd := &cobra.Command{
		Use:   "watering",
		Short: "Show watering hours, and the interval when --dry and --rainy are given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := opts.day(date)
			if err != nil {
				return err
			}
			window, err := opts.seasons.WateringWindow(day, opts.region)
			if err != nil {
				return err
			}

			result := struct {
				season.WateringWindow
				Season       season.Season `json:"season,omitempty"`
				IntervalDays int           `json:"interval_days,omitempty"`
			}{WateringWindow: window}
			if cmd.Flags().Changed("dry") || cmd.Flags().Changed("rainy") {
				result.IntervalDays, result.Season, _ = opts.seasons.WateringInterval(dryDays, rainyDays, day, opts.region)
			}

			w := cmd.OutOrStdout()
			return opts.print(w, result, func() {
				fmt.Fprintf(w, "Watering %s (%s)\n", window.Date.Format(dateLayout), window.Region)
				rule(w)
				fmt.Fprintf(w, "Sunrise: %s   Sunset: %s\n", window.Sunrise.Format("15:04"), window.Sunset.Format("15:04"))
				fmt.Fprintf(w, "Morning: %s-%s\n", window.Morning.Start.Format("15:04"), window.Morning.End.Format("15:04"))
				fmt.Fprintf(w, "Evening: %s-%s\n", window.Evening.Start.Format("15:04"), window.Evening.End.Format("15:04"))
				if result.IntervalDays > 0 {
					fmt.Fprintf(w, "Interval: every %d days (%s)\n", result.IntervalDays, result.Season)
				}
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to compute (YYYY-MM-DD)")
	cmd.Flags().IntVar(&dryDays, "dry", 0, "dry-season watering interval in days")
	cmd.Flags().IntVar(&rainyDays, "rainy", 0, "rainy-season watering interval in days")
	return cmd
}
