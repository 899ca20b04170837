package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/danielolaszy/starburst/internal/logging"
	"github.com/danielolaszy/starburst/internal/server"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sunburst API",
		Long: `Start the HTTP API used by the sunburst client.

Endpoints:
  GET /api/health
  GET /api/versions?project=TPO
  GET /api/sunburst?pi=PI30
  GET /api/hierarchy?pi=PI30
  GET /api/relationships?pi=PI30&key=TPO-1042
  GET /metrics

When STATIC_DIR is set the built client is served as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			port, err := cmd.Flags().GetInt("port")
			if err != nil {
				return err
			}
			if port == 0 {
				port = a.cfg.Server.Port
			}

			if a.cfg.Server.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := server.New(a.engine, a.versions, a.cache, server.Options{
				Origins:   a.cfg.Server.Origins,
				StaticDir: a.cfg.Server.StaticDir,
				CacheTTL:  a.cfg.Traversal.CacheTTL,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logging.Info("starting server",
				"port", port,
				"env", a.cfg.Server.Env,
				"origins", a.cfg.Server.Origins)
			return srv.Run(ctx, fmt.Sprintf(":%d", port))
		},
	}

	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (overrides PORT)")
	return serveCmd
}
