// Package commands wires the hyprcal CLI.
package commands

import (
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"hyprcal/internal/clock"
	"hyprcal/internal/config"
	"hyprcal/internal/controller"
	"hyprcal/internal/ics"
	"hyprcal/internal/launch"
	appLog "hyprcal/internal/log"
	"hyprcal/internal/state"
)

// RootOptions are the flags shared by every subcommand.
type RootOptions struct {
	ConfigPath   string
	CalendarPath string
	Debug        bool

	// Clock is the time source handed to the store and controller. Tests
	// pin it; the CLI leaves it nil for the system clock.
	Clock clock.Clock
}

func New() *cobra.Command {
	return NewWithOptions(&RootOptions{})
}

// NewWithOptions builds the command tree around ro.
func NewWithOptions(ro *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hyprcal",
		Short: "Month grid and ICS event store for a status bar clock.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if ro.Debug {
				appLog.SetLevel(appLog.LevelDebug)
			}
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&ro.ConfigPath, "config", config.DefaultPath(),
		"Path to the config file.")
	cmd.PersistentFlags().StringVar(&ro.CalendarPath, "calendar", "",
		"Path to the ICS file (default ~/.thunderbird/calendar.ics).")
	cmd.PersistentFlags().BoolVar(&ro.Debug, "debug", false,
		"Enable debug logging.")

	AddCommands(cmd, ro)
	return cmd
}

func AddCommands(topLevel *cobra.Command, ro *RootOptions) {
	addGrid(topLevel, ro)
	addTooltip(topLevel, ro)
	addEvents(topLevel, ro)
	addAdd(topLevel, ro)
	addList(topLevel, ro)
	addOpen(topLevel, ro)
	addServe(topLevel, ro)
}

func (ro *RootOptions) calendarPath() (string, error) {
	if ro.CalendarPath == "" {
		return ics.DefaultPath()
	}
	return homedir.Expand(ro.CalendarPath)
}

func (ro *RootOptions) store() (*ics.Store, error) {
	path, err := ro.calendarPath()
	if err != nil {
		return nil, err
	}
	return ics.NewStore(path, ro.Clock), nil
}

// loadConfig reads the config file. A config that loaded but could not be
// written back is still used.
func (ro *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(ro.ConfigPath)
	if err != nil {
		if cfg == nil {
			return nil, err
		}
		appLog.Warn("using config without saving it", "path", ro.ConfigPath, "err", err.Error())
	}
	if !ro.Debug {
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	}
	return cfg, nil
}

// controller builds a Controller over the calendar file. viewer may be nil
// when the command never opens the calendar application.
func (ro *RootOptions) controller(viewer []string) (*controller.Controller, *state.AppState, error) {
	store, err := ro.store()
	if err != nil {
		return nil, nil, err
	}
	ctrl, st := ro.controllerFor(store, viewer)
	return ctrl, st, nil
}

func (ro *RootOptions) controllerFor(store *ics.Store, viewer []string) (*controller.Controller, *state.AppState) {
	if viewer == nil {
		viewer = launch.DefaultCommand
	}
	st := state.New()
	return controller.New(store, ro.Clock, st, launch.Exec{Command: viewer}), st
}
