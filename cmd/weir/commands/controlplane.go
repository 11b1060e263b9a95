package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weirlabs/weir/internal/logger"
	"github.com/weirlabs/weir/internal/telemetry"
	"github.com/weirlabs/weir/pkg/config"
	"github.com/weirlabs/weir/pkg/database"
	"github.com/weirlabs/weir/pkg/metrics"
	"github.com/weirlabs/weir/pkg/services"
	"github.com/weirlabs/weir/pkg/shutdown"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the REST API service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runControlPlane(cmd.Context(), services.KindAPI)
	},
}

var compilerCmd = &cobra.Command{
	Use:   "compiler",
	Short: "Run the pipeline compilation service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runControlPlane(cmd.Context(), services.KindCompiler)
	},
}

var controllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "Run the scheduling controller",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runControlPlane(cmd.Context(), services.KindController)
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Run api, compiler and controller in a single process",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runControlPlane(cmd.Context(), services.KindAll)
	},
}

// runControlPlane bootstraps a control-plane role: configuration, logging,
// the shared connection pool with the cluster identity, tracing, and the
// kind's units under the shutdown coordinator.
func runControlPlane(ctx context.Context, kind services.Kind) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return err
	}

	pool, clusterID, err := database.AcquirePool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", kind.Name(), err)
	}
	defer pool.Close()

	stopTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    kind.Name(),
		ServiceVersion: Version,
		ClusterID:      clusterID.String(),
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = stopTracing(context.Background())
	}()
	if telemetry.IsEnabled() {
		logger.Info("tracing enabled", "endpoint", cfg.Telemetry.Endpoint)
	}

	logger.Info("service starting",
		logger.Service(kind.Name()),
		logger.ClusterID(clusterID.String()),
		logger.KeyScheduler, cfg.Scheduler,
		logger.KeyVersion, Version)
	metrics.ServiceStartups.WithLabelValues(kind.Name(), cfg.Scheduler).Inc()

	co := shutdown.New(kind.Name())
	services.Dispatch(co, kind, services.Deps{
		Config:    cfg,
		Pool:      pool,
		ClusterID: clusterID,
	})

	return co.WaitForShutdown(cfg.ShutdownGrace)
}
