package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weirlabs/weir/internal/logger"
	"github.com/weirlabs/weir/internal/telemetry"
	"github.com/weirlabs/weir/pkg/config"
)

// heartbeatInterval is how often the controller records liveness in the
// database.
const heartbeatInterval = 5 * time.Second

// ControllerServer is the scheduling unit. It serves a gRPC endpoint on a
// fixed control-plane port and periodically records a heartbeat for its
// cluster in the database.
type ControllerServer struct {
	pool      *pgxpool.Pool
	clusterID uuid.UUID
	port      int
	interval  time.Duration
	log       *slog.Logger
}

// NewControllerServer creates the controller unit backed by the shared
// connection pool.
func NewControllerServer(pool *pgxpool.Pool, clusterID uuid.UUID) *ControllerServer {
	return &ControllerServer{
		pool:      pool,
		clusterID: clusterID,
		port:      config.PortController,
		interval:  heartbeatInterval,
		log:       logger.With(logger.Service("controller"), logger.ClusterID(clusterID.String())),
	}
}

// Run serves the controller endpoint and the heartbeat loop until ctx is
// cancelled.
func (s *ControllerServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- serveGRPC(ctx, "controller", s.port, nil)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return <-errCh

		case err := <-errCh:
			return err

		case <-ticker.C:
			// A missed heartbeat is transient; the controller keeps running.
			if err := s.beat(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("heartbeat failed", logger.Err(err))
			}
		}
	}
}

func (s *ControllerServer) beat(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "controller.heartbeat")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`insert into controller_heartbeats (cluster_id) values ($1)
		 on conflict (cluster_id) do update set heartbeat_at = now()`,
		s.clusterID)
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	return err
}
