package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/weirlabs/weir/pkg/database/migrations"
	"github.com/weirlabs/weir/pkg/metrics"
)

// MigrationRecord is one row of the migration ledger.
type MigrationRecord struct {
	Version   int64
	Name      string
	AppliedAt time.Time
}

// migration is a parsed embedded migration file.
type migration struct {
	version int64
	name    string
	sql     string
}

// Conn is the subset of pgx.Conn the migration runner needs. Migrations run
// on a direct connection, never on the pool.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// createLedger keeps the ledger schema in one place; the runner creates it
// on first use so `weir migrate` works against an empty database.
const createLedger = `create table if not exists migration_ledger (
	version bigint primary key,
	name text not null,
	applied_at timestamptz not null default now()
)`

// Runner applies embedded schema migrations in ascending version order.
type Runner struct {
	migrations []migration
}

// NewRunner loads the embedded migration set.
func NewRunner() (*Runner, error) {
	return newRunner(migrations.FS)
}

// newRunner parses NNNN_name.sql files from the given filesystem.
func newRunner(fsys fs.FS) (*Runner, error) {
	entries, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	seen := make(map[int64]string, len(entries))
	parsed := make([]migration, 0, len(entries))

	for _, path := range entries {
		version, name, err := parseMigrationName(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %d: %s and %s", version, prev, path)
		}
		seen[version] = path

		body, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", path, err)
		}

		parsed = append(parsed, migration{version: version, name: name, sql: string(body)})
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].version < parsed[j].version })

	return &Runner{migrations: parsed}, nil
}

// parseMigrationName splits "0003_create_jobs.sql" into (3, "create_jobs").
func parseMigrationName(path string) (int64, string, error) {
	base := strings.TrimSuffix(path, ".sql")
	idx := strings.Index(base, "_")
	if idx <= 0 || idx == len(base)-1 {
		return 0, "", fmt.Errorf("invalid migration filename %q: want NNNN_name.sql", path)
	}

	version, err := strconv.ParseInt(base[:idx], 10, 64)
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("invalid migration version in %q: want NNNN_name.sql", path)
	}

	return version, base[idx+1:], nil
}

// Run applies all migrations whose version exceeds the highest recorded
// ledger version, each atomically, and returns the newly applied records.
//
// On the first failure no further migrations are attempted and the records
// applied so far are returned together with a *MigrationError; the caller
// must treat this as fatal. Running twice in succession with no new
// migration definitions yields an empty list the second time.
func (r *Runner) Run(ctx context.Context, conn Conn) ([]MigrationRecord, error) {
	if _, err := conn.Exec(ctx, createLedger); err != nil {
		return nil, fmt.Errorf("failed to create migration ledger: %w", err)
	}

	var highest int64
	if err := conn.QueryRow(ctx, "select coalesce(max(version), 0) from migration_ledger").Scan(&highest); err != nil {
		return nil, fmt.Errorf("failed to read migration ledger: %w", err)
	}

	var applied []MigrationRecord
	for _, m := range r.migrations {
		if m.version <= highest {
			continue
		}

		rec, err := apply(ctx, conn, m)
		if err != nil {
			return applied, &MigrationError{Version: m.version, Name: m.name, Cause: err}
		}

		metrics.MigrationsApplied.Inc()
		applied = append(applied, rec)
	}

	return applied, nil
}

// apply runs a single migration and its ledger insert in one transaction.
func apply(ctx context.Context, conn Conn, m migration) (MigrationRecord, error) {
	if _, err := conn.Exec(ctx, "begin"); err != nil {
		return MigrationRecord{}, err
	}

	if _, err := conn.Exec(ctx, m.sql); err != nil {
		_, _ = conn.Exec(ctx, "rollback")
		return MigrationRecord{}, err
	}

	var appliedAt time.Time
	err := conn.QueryRow(ctx,
		"insert into migration_ledger (version, name) values ($1, $2) returning applied_at",
		m.version, m.name,
	).Scan(&appliedAt)
	if err != nil {
		_, _ = conn.Exec(ctx, "rollback")
		return MigrationRecord{}, err
	}

	if _, err := conn.Exec(ctx, "commit"); err != nil {
		return MigrationRecord{}, err
	}

	return MigrationRecord{Version: m.version, Name: m.name, AppliedAt: appliedAt}, nil
}
