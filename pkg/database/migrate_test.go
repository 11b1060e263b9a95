package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow satisfies pgx.Row with a canned scan.
type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

// fakeConn emulates the two statements the runner issues against the
// ledger, and records every migration body it executes.
type fakeConn struct {
	applied []int64
	bodies  []string
	failOn  string
}

var errBoom = errors.New("boom")

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if c.failOn != "" && strings.Contains(sql, c.failOn) {
		return pgconn.CommandTag{}, errBoom
	}
	switch sql {
	case "begin", "commit", "rollback":
	default:
		if !strings.Contains(sql, "migration_ledger") {
			c.bodies = append(c.bodies, sql)
		}
	}
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if strings.Contains(sql, "max(version)") {
		var highest int64
		for _, v := range c.applied {
			if v > highest {
				highest = v
			}
		}
		return fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*int64)) = highest
			return nil
		}}
	}

	// Ledger insert carries (version, name) and returns applied_at.
	c.applied = append(c.applied, args[0].(int64))
	return fakeRow{scan: func(dest ...any) error {
		*(dest[0].(*time.Time)) = time.Now()
		return nil
	}}
}

func testMigrationFS() fstest.MapFS {
	return fstest.MapFS{
		"0001_first.sql":  {Data: []byte("create table first (id int)")},
		"0002_second.sql": {Data: []byte("create table second (id int)")},
		"0003_third.sql":  {Data: []byte("create table third (id int)")},
	}
}

func TestRunAppliesInAscendingOrder(t *testing.T) {
	runner, err := newRunner(testMigrationFS())
	require.NoError(t, err)

	conn := &fakeConn{}
	applied, err := runner.Run(context.Background(), conn)
	require.NoError(t, err)

	require.Len(t, applied, 3)
	assert.Equal(t, int64(1), applied[0].Version)
	assert.Equal(t, "first", applied[0].Name)
	assert.Equal(t, int64(2), applied[1].Version)
	assert.Equal(t, int64(3), applied[2].Version)
	assert.False(t, applied[0].AppliedAt.IsZero())

	assert.Equal(t, []string{
		"create table first (id int)",
		"create table second (id int)",
		"create table third (id int)",
	}, conn.bodies)
}

func TestRunIsIdempotent(t *testing.T) {
	runner, err := newRunner(testMigrationFS())
	require.NoError(t, err)

	conn := &fakeConn{}
	first, err := runner.Run(context.Background(), conn)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := runner.Run(context.Background(), conn)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestRunSkipsVersionsAtOrBelowLedger(t *testing.T) {
	runner, err := newRunner(testMigrationFS())
	require.NoError(t, err)

	conn := &fakeConn{applied: []int64{2}}
	applied, err := runner.Run(context.Background(), conn)
	require.NoError(t, err)

	require.Len(t, applied, 1)
	assert.Equal(t, int64(3), applied[0].Version)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	runner, err := newRunner(testMigrationFS())
	require.NoError(t, err)

	conn := &fakeConn{failOn: "create table third"}
	applied, err := runner.Run(context.Background(), conn)

	var migErr *MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, int64(3), migErr.Version)
	assert.Equal(t, "third", migErr.Name)
	assert.ErrorIs(t, err, errBoom)

	// Successful migrations before the failure are still reported.
	require.Len(t, applied, 2)
	assert.Equal(t, int64(2), applied[1].Version)
}

func TestNewRunnerRejectsDuplicateVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_first.sql": {Data: []byte("select 1")},
		"0001_other.sql": {Data: []byte("select 1")},
	}
	_, err := newRunner(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version 1")
}

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		path    string
		version int64
		name    string
		wantErr bool
	}{
		{path: "0001_init_cluster_info.sql", version: 1, name: "init_cluster_info"},
		{path: "0042_add_index.sql", version: 42, name: "add_index"},
		{path: "nonsense.sql", wantErr: true},
		{path: "_name.sql", wantErr: true},
		{path: "0001_.sql", wantErr: true},
		{path: "0000_zero.sql", wantErr: true},
		{path: "abc_name.sql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			version, name, err := parseMigrationName(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	runner, err := NewRunner()
	require.NoError(t, err)
	require.NotEmpty(t, runner.migrations)

	// The bootstrap migration that seeds the cluster identity must always
	// come first.
	assert.Equal(t, int64(1), runner.migrations[0].version)
	assert.Equal(t, "init_cluster_info", runner.migrations[0].name)
	assert.Contains(t, runner.migrations[0].sql, "cluster_info")
}
