package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/weirlabs/weir/internal/logger"
	"github.com/weirlabs/weir/internal/telemetry"
	"github.com/weirlabs/weir/pkg/config"
	"github.com/weirlabs/weir/pkg/metrics"
	"github.com/weirlabs/weir/pkg/services"
	"github.com/weirlabs/weir/pkg/shutdown"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a pipeline execution worker",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStandalone(cmd.Context(), services.KindWorker)
	},
}

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run a node that hosts workers on this machine",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStandalone(cmd.Context(), services.KindNode)
	},
}

// runStandalone bootstraps a data-plane role. Workers and nodes take their
// identity from the environment and never open a database connection.
func runStandalone(ctx context.Context, kind services.Kind) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return err
	}

	stopTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    kind.Name(),
		ServiceVersion: Version,
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
		logger.KeyScheduler, cfg.Scheduler,
		logger.KeyVersion, Version)
	metrics.ServiceStartups.WithLabelValues(kind.Name(), cfg.Scheduler).Inc()

	co := shutdown.New(kind.Name())
	services.Dispatch(co, kind, services.Deps{Config: cfg})

	return co.WaitForShutdown(cfg.ShutdownGrace)
}
