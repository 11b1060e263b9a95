package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/weirlabs/weir/internal/logger"
	"github.com/weirlabs/weir/pkg/config"
	"github.com/weirlabs/weir/pkg/database"
)

var migrateWait uint

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and exit",
	Long: `Connects to the configured Postgres database and applies every
schema migration whose version is not yet recorded in the ledger. Safe to
run repeatedly; an up-to-date database is a no-op.

With --wait, transient connection failures are retried until the given
number of seconds has elapsed. Authentication failures never wait.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
			return err
		}

		ctx := cmd.Context()

		conn, err := database.NewConnector(cfg.Database).
			Connect(ctx, time.Duration(migrateWait)*time.Second)
		if err != nil {
			return err
		}
		defer func() {
			_ = conn.Close(ctx)
		}()

		runner, err := database.NewRunner()
		if err != nil {
			return err
		}

		applied, err := runner.Run(ctx, conn)
		for _, rec := range applied {
			logger.Info("migration applied",
				logger.KeyVersion, rec.Version, logger.KeyName, rec.Name)
		}
		if err != nil {
			return err
		}

		logger.Info("migrations complete",
			logger.KeyDatabase, cfg.Database.String(), "applied", len(applied))
		return nil
	},
}

func init() {
	migrateCmd.Flags().UintVar(&migrateWait, "wait", 0,
		"seconds to wait for the database to accept connections (0 disables retries)")
}
