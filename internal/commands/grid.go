package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hyprcal/internal/grid"
)

type gridOptions struct {
	Year  int
	Month int
	Day   int
}

func addGrid(topLevel *cobra.Command, ro *RootOptions) {
	o := &gridOptions{}

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print a month grid",
		Example: `
hyprcal grid
hyprcal grid --year 2025 --month 3 --day 15
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if ro.Clock != nil {
				now = ro.Clock.Now()
			}

			year, month := o.Year, o.Month
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("month must be between 1 and 12, got %d", month)
			}
			if year < 1 || year > 9999 {
				return fmt.Errorf("year must be between 1 and 9999, got %d", year)
			}

			day := o.Day
			if day == 0 && year == now.Year() && month == int(now.Month()) {
				day = now.Day()
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintln(out, grid.Header(year, month)); err != nil {
				return err
			}
			return grid.Build(year, month, day).Fprint(out)
		},
	}

	cmd.Flags().IntVar(&o.Year, "year", 0, "Year to show (default current).")
	cmd.Flags().IntVar(&o.Month, "month", 0, "Month to show, 1-12 (default current).")
	cmd.Flags().IntVar(&o.Day, "day", 0, "Day to highlight (default today in the current month).")

	topLevel.AddCommand(cmd)
}

func addTooltip(topLevel *cobra.Command, ro *RootOptions) {
	cmd := &cobra.Command{
		Use:   "tooltip",
		Short: "Print the status bar tooltip for this month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, err := ro.controller(nil)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ctrl.Tooltip())
			return err
		},
	}

	topLevel.AddCommand(cmd)
}
