package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weirlabs/weir/internal/logger"
	"github.com/weirlabs/weir/pkg/config"
)

// AcquirePool builds the process-wide connection pool and fetches the
// cluster identity from the cluster_info bootstrap table.
//
// The identity fetch doubles as the pool's first health check: a process
// that cannot resolve its cluster identity must not serve traffic, so any
// failure here is fatal to the caller. The returned uuid is immutable for
// the remainder of the process lifetime and is passed explicitly to every
// component that needs it.
func AcquirePool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, uuid.UUID, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid database configuration for %s: %w", cfg, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, uuid.Nil, &ConnectError{Target: cfg.String(), Cause: err}
	}

	var raw string
	if err := pool.QueryRow(ctx, "select id::text from cluster_info").Scan(&raw); err != nil {
		pool.Close()
		return nil, uuid.Nil, fmt.Errorf("failed to fetch cluster identity from %s: %w", cfg, err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		pool.Close()
		return nil, uuid.Nil, fmt.Errorf("invalid cluster identity %q in %s: %w", raw, cfg, err)
	}

	logger.Info("connection pool established",
		logger.KeyDatabase, cfg.String(),
		logger.ClusterID(id.String()))

	return pool, id, nil
}
