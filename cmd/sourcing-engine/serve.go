// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/sourcing-engine/internal/metrics"
	"github.com/pdiddy/sourcing-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sourcing engine over HTTP",
	Long: `Serve exposes POST /v1/search, GET /v1/adapters, GET /healthz and
GET /metrics. Adapters are built once at startup from the configuration.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	adapters, closers, err := buildAdapters(cfg, nil)
	if err != nil {
		return err
	}
	defer closeAll(closers)
	if len(adapters) == 0 {
		zap.L().Warn("no adapters configured; every query will return no results")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.New()
	searcher, closeCache := newSearcher(ctx, cfg, rec, true)
	defer closeCache()

	srv := server.New(searcher, adapters, rec.Handler(), zap.L())
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
