package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/getmockd/mockstore/pkg/server"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var (
		addr string
		path string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the GraphQL endpoint",
		Long: `Serve the configured GraphQL schema over HTTP until interrupted.

Routes:
  POST|GET <path>                 GraphQL endpoint (default /graphql)
  GET  /healthz                   liveness probe
  GET  /__mockstore/state         store overview and counters
  POST /__mockstore/reset         drop every stored record
  GET  /__mockstore/records/{type}/{id}
  DELETE /__mockstore/records/{type}/{id}`,
		Example: `  mockstore serve
  mockstore serve -c ./mockstore.yaml --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, configPath, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if path != "" {
				cfg.Server.Path = path
			}

			log := opts.logger(cfg, cmd.ErrOrStderr())
			srv, err := server.New(cfg, server.WithLogger(log))
			if err != nil {
				return err
			}
			log.Info("starting mockstore", "config", configPath, "version", Version)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address override (e.g. :4280)")
	cmd.Flags().StringVar(&path, "path", "", "GraphQL endpoint path override")
	return cmd
}
