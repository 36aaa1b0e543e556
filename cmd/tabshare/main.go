package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tabshare/tabshare/internal/config"
	"github.com/tabshare/tabshare/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "tabshare",
		Short:         "Receipt-splitting session engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(cfg.LogLevel)
			if cfg.MetricsAddr != "" {
				go serveMetrics(cfg.MetricsAddr)
			}
		},
	}

	root.AddCommand(newDemoCmd(&cfg))
	root.AddCommand(newSettleCmd(&cfg))
	return root
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics endpoint listening", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics endpoint failed", "error", err)
	}
}
