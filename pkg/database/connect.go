// Package database establishes weir's Postgres connections and applies
// schema migrations. A process holds exactly one connection pool; direct
// connections exist only for the migration path.
package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/weirlabs/weir/internal/logger"
	"github.com/weirlabs/weir/pkg/config"
	"github.com/weirlabs/weir/pkg/metrics"
)

// connectBackoff is the fixed sleep between connection attempts while
// waiting for the database to become ready.
const connectBackoff = 500 * time.Millisecond

// retryState is the explicit state of the connect loop. Keeping the
// fatal/retryable/timeout distinction as states makes each transition
// independently testable.
type retryState int

const (
	stateAttempting retryState = iota
	stateRetryWait
)

// Connector establishes direct (non-pooled) connections with retry
// semantics. The zero value is not usable; call NewConnector.
type Connector struct {
	cfg     config.DatabaseConfig
	backoff time.Duration

	// dial is swapped out in tests to simulate failures.
	dial func(ctx context.Context) (*pgx.Conn, error)
}

// NewConnector returns a Connector for the given database target.
func NewConnector(cfg config.DatabaseConfig) *Connector {
	return &Connector{
		cfg:     cfg,
		backoff: connectBackoff,
		dial: func(ctx context.Context) (*pgx.Conn, error) {
			return pgx.Connect(ctx, cfg.DSN())
		},
	}
}

// Connect attempts a direct connection.
//
// Authentication failures stop the loop immediately and surface as a fatal
// *ConnectError, regardless of wait. With wait == 0 retries are disabled:
// any failure propagates after a single attempt. With wait > 0 retryable
// failures are re-attempted on a fixed 500ms backoff until the deadline
// elapses, at which point a *TimeoutError carrying the last cause is
// returned. Operators opt into waiting explicitly; it is never the default.
func (c *Connector) Connect(ctx context.Context, wait time.Duration) (*pgx.Conn, error) {
	var deadline time.Time
	if wait > 0 {
		deadline = time.Now().Add(wait)
	}

	state := stateAttempting
	attempt := 0
	var lastErr error

	for {
		switch state {
		case stateAttempting:
			attempt++
			conn, err := c.dial(ctx)
			if err == nil {
				return conn, nil
			}
			lastErr = err

			if isAuthError(err) {
				return nil, &ConnectError{Target: c.cfg.String(), Fatal: true, Cause: err}
			}
			if wait == 0 {
				return nil, &ConnectError{Target: c.cfg.String(), Cause: err}
			}
			if !time.Now().Before(deadline) {
				return nil, &TimeoutError{Target: c.cfg.String(), Wait: wait, Cause: lastErr}
			}
			state = stateRetryWait

		case stateRetryWait:
			logger.Debug("database not ready, retrying",
				logger.KeyDatabase, c.cfg.String(),
				logger.KeyAttempt, attempt,
				logger.KeyError, lastErr.Error())
			metrics.ConnectRetries.Inc()

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff):
			}

			if !time.Now().Before(deadline) {
				return nil, &TimeoutError{Target: c.cfg.String(), Wait: wait, Cause: lastErr}
			}
			state = stateAttempting
		}
	}
}
