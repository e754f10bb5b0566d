package main

import (
	"context"
	"time"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/runtime"
	srv "github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/server"
	"github.com/spf13/cobra"
)

func serveCMD(a *app) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.must(); err != nil {
				return err
			}
			ctx, stop := runtime.SignalContext(cmd.Context())
			defer stop()

			comps, err := runtime.Build(ctx, a.cfg, a.logger, runtime.BuildOptions{WithArchive: true})
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := comps.Close(closeCtx); err != nil {
					comps.Logger.Errorw("shutdown", "error", err)
				}
			}()

			deps := srv.Deps{
				ServiceName:    a.cfg.General.ServiceName,
				Researcher:     comps.Orchestrator,
				Memory:         comps.Memory,
				Index:          comps.Index,
				Logger:         comps.Logger,
				RequestTimeout: a.cfg.Server.RequestTimeout,
			}
			if comps.Archive != nil {
				deps.Reports = comps.Archive
			}
			if a.cfg.Telemetry.Enabled {
				deps.Gatherer = comps.Registry
			}
			if addr == "" {
				addr = a.cfg.Server.Address
			}
			comps.Logger.Infow("listening", "addr", addr)
			return srv.Run(ctx, srv.New(deps), addr, 15*time.Second)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default server.address)")
	return serve
}
