package commands

import (
	"github.com/spf13/cobra"
)

func addOpen(topLevel *cobra.Command, ro *RootOptions) {
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open the full calendar application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ro.loadConfig()
			if err != nil {
				return err
			}
			ctrl, _, err := ro.controller(cfg.ViewerCommand)
			if err != nil {
				return err
			}
			return ctrl.ViewFullSchedule()
		},
	}

	topLevel.AddCommand(cmd)
}
