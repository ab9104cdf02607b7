package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/infrastructure/httpapi"
	"github.com/ersonp/legis/internal/infrastructure/logging"
	"github.com/ersonp/legis/internal/infrastructure/scheduler"
)

// jobTimeout bounds a single scheduled run.
const jobTimeout = 5 * time.Minute

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled jobs",
		Long: "Serves the HTTP API and runs the overdue scan and staged value activation " +
			"on the schedules from the config file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")

	return cmd
}

func runServe(ctx context.Context, addr string) error {
	mode := logging.ModeProduction
	if globalVerbose {
		mode = logging.ModeDevelopment
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return withDeps(ctx, mode, func(d *Deps) error {
		serverCfg := d.Config.Server
		if addr != "" {
			serverCfg.Addr = addr
		}

		sched := scheduler.New(ctx, d.Logger)
		jobs := []scheduler.Job{
			{
				Name:    "overdue-scan",
				Spec:    d.Config.Scheduler.OverdueScan,
				Timeout: jobTimeout,
				Run: func(ctx context.Context) error {
					_, err := d.Monitor.HandleOverdueScan(ctx)
					return err
				},
			},
			{
				Name:    "staged-activation",
				Spec:    d.Config.Scheduler.StagedActivation,
				Timeout: jobTimeout,
				Run: func(ctx context.Context) error {
					_, err := d.Monitor.HandleStagedActivation(ctx)
					return err
				},
			},
		}
		for _, job := range jobs {
			if _, err := sched.Add(job); err != nil {
				return err
			}
		}

		// Publish gauges and catch up on staged values before taking traffic.
		if _, err := d.Monitor.HandleStagedActivation(ctx); err != nil {
			d.Logger.Warn("initial staged activation failed", zap.Error(err))
		}
		if _, err := d.Monitor.HandleOverdueScan(ctx); err != nil {
			d.Logger.Warn("initial overdue scan failed", zap.Error(err))
		}

		sched.Start()
		defer sched.Stop()

		router := httpapi.NewRouter(httpapi.Deps{
			Variables: d.Variables,
			Points:    d.Points,
			Render:    d.Render,
			Metrics:   d.Metrics.Handler(),
			Logger:    d.Logger,
		}, serverCfg.RequestTimeout)

		if err := httpapi.Serve(ctx, serverCfg, router, d.Logger); err != nil {
			return fmt.Errorf("running server: %w", err)
		}
		return nil
	})
}
