package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"hyprcal/internal/config"
	"hyprcal/internal/ics"
	appLog "hyprcal/internal/log"
	"hyprcal/internal/web"
)

type serveOptions struct {
	Listen string
}

func addServe(topLevel *cobra.Command, ro *RootOptions) {
	o := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grid, tooltip and events over HTTP",
		Example: `
hyprcal serve
hyprcal serve --listen 127.0.0.1:9000
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ro.loadConfig()
			if err != nil {
				return err
			}
			if o.Listen != "" {
				cfg.Listen = o.Listen
			}

			store, err := ro.store()
			if err != nil {
				return err
			}
			ctrl, st := ro.controllerFor(store, cfg.ViewerCommand)
			logEffectiveConfig(cfg, store)

			srv := web.NewServer(cfg, ctrl, st, ro.Clock)

			sched := cron.New()
			if _, err := sched.AddFunc(cfg.TooltipRefresh, srv.RefreshTooltip); err != nil {
				return fmt.Errorf("invalid tooltip_refresh %q: %w", cfg.TooltipRefresh, err)
			}
			sched.Start()
			defer sched.Stop()

			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			go func() {
				select {
				case sig := <-sigCh:
					appLog.Info("signal received, shutting down", "signal", sig.String())
					cancel()
				case <-ctx.Done():
				}
			}()

			if err := srv.Run(ctx); err != nil {
				return err
			}
			appLog.Info("hyprcal exiting")
			return nil
		},
	}

	cmd.Flags().StringVar(&o.Listen, "listen", "", "HTTP listen address (overrides config if set).")

	topLevel.AddCommand(cmd)
}

func logEffectiveConfig(cfg *config.Config, store *ics.Store) {
	appLog.Info("effective config",
		"listen", cfg.Listen,
		"calendar", store.Path(),
		"viewer", strings.Join(cfg.ViewerCommand, " "),
		"tooltip_refresh", cfg.TooltipRefresh,
		"basic_auth", cfg.BasicAuth.Enabled(),
	)
}
