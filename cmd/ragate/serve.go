package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/calque-ai/ragate/pkg/helpers"
	"github.com/calque-ai/ragate/pkg/server"
)

func serveCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query pipeline, health and metrics over HTTP",
		Long: `Start an HTTP server with:
  POST /v1/query           {"query": "...", "k": 5}
  GET  /v1/security-stats  audit counters and recent events
  GET  /healthz            backend and audit store health
  GET  /metrics            Prometheus metrics

The address defaults to observability.metrics_addr, then :8080.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, appOptions{search: true})
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.Logging.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			srv, err := server.New(a.pipeline,
				server.WithRateGate(a.gate.Rate()),
				server.WithRecorder(a.recent),
				server.WithHealth(a.health),
				server.WithMetricsHandler(a.metrics.Handler()),
				server.WithServiceName(a.cfg.Observability.ServiceName),
				server.WithQueryTimeout(a.cfg.QueryTimeout()),
			)
			if err != nil {
				return err
			}

			listen := helpers.DefaultString(addr, a.cfg.Observability.MetricsAddr, ":8080")
			return srv.Run(a.ctx, listen)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address")

	return cmd
}
