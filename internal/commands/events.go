package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"hyprcal/internal/model"
)

func addEvents(topLevel *cobra.Command, ro *RootOptions) {
	cmd := &cobra.Command{
		Use:   "events DATE",
		Short: "Show the events starting on a day",
		Example: `
hyprcal events 2025-06-10
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := model.ParseDate(args[0])
			if err != nil {
				return err
			}
			ctrl, _, err := ro.controller(nil)
			if err != nil {
				return err
			}

			sched := ctrl.SelectDay(d)
			out := cmd.OutOrStdout()
			bold := color.New(color.Bold)
			if _, err := fmt.Fprintln(out, bold.Sprint(sched.Title())); err != nil {
				return err
			}
			if text := sched.Text(); text != "" {
				_, err = fmt.Fprintln(out, text)
			}
			return err
		},
	}

	topLevel.AddCommand(cmd)
}

func addAdd(topLevel *cobra.Command, ro *RootOptions) {
	cmd := &cobra.Command{
		Use:   "add DATE SUMMARY...",
		Short: "Add a one-day event",
		Example: `
hyprcal add 2025-06-10 Dentist
hyprcal add 2025-06-10 Team offsite in Berlin
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := model.ParseDate(args[0])
			if err != nil {
				return err
			}
			ctrl, st, err := ro.controller(nil)
			if err != nil {
				return err
			}

			summary := strings.Join(args[1:], " ")
			if err := ctrl.AddEvent(d, summary); err != nil {
				return err
			}
			if m, ok := st.Last(); ok {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), m.Text)
			}
			return err
		},
	}

	topLevel.AddCommand(cmd)
}

func addList(topLevel *cobra.Command, ro *RootOptions) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every event in the calendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ro.store()
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.MaxColWidth = 60
			tbl.AddRow(bold.Sprint("Date"), bold.Sprint("Summary"), bold.Sprint("Timing"), bold.Sprint("Repeats"))
			for _, ev := range store.Events() {
				date := ev.Start.String()
				if ev.End != ev.Start {
					date += " - " + ev.End.String()
				}
				summary := ev.Summary
				if summary == "" {
					summary = "-"
				}
				repeats := ev.Recurrence
				if repeats == "" {
					repeats = "-"
				}
				tbl.AddRow(date, summary, ev.Timing.String(), repeats)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return err
		},
	}

	topLevel.AddCommand(cmd)
}
