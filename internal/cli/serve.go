package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slotfit/internal/server"
	"github.com/matzehuels/slotfit/pkg/report"
)

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		noCache bool
		noStore bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve exposes the solver over HTTP:

  POST /v1/solve      {"slots": ..., "notes": ..., "style": "<toml>"}
  POST /v1/profiles   {"style": "<toml>"}
  GET  /v1/runs       stored runs
  GET  /v1/runs/{id}  one stored report
  GET  /healthz       build information`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			var store report.Store
			if !noStore {
				if store, err = report.Open(ctx, cfg.Store); err != nil {
					c.Logger.Warn("report store unavailable, runs will not be saved", "backend", cfg.Store.Backend, "error", err)
					store = nil
				}
			}
			if store != nil {
				defer store.Close()
			}

			srv := server.New(server.Config{
				Addr:         addr,
				Defaults:     cfg,
				Runner:       runner,
				Store:        store,
				Logger:       c.Logger,
				SolveTimeout: timeout,
			})
			printInfo("Listening on %s", StyleValue.Render(addr))
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&timeout, "solve-timeout", 2*time.Minute, "limit for one solve request (0 = none)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable measurement and plan caching")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist solved reports")
	return cmd
}
