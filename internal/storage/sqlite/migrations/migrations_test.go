package migrations_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/gavet/crmdialer/internal/storage/sqlite/migrations"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestMigratorUpAndDown(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	db := openDB(t)
	m, err := migrations.NewMigrator(db, nil)
	require.NoError(err)

	v, err := m.Version(ctx)
	require.NoError(err)
	assert.Equal(uint(0), v)

	res, err := m.Up(ctx)
	require.NoError(err)
	assert.Equal(migrations.Result{From: 0, To: 1}, res)
	assert.True(res.Changed())
	for _, table := range []string{"contacts", "priority", "results", "callbacks", "schema_info"} {
		assert.True(tableExists(t, db, table), table)
	}

	// A migrated store is left untouched.
	res, err = m.Up(ctx)
	require.NoError(err)
	assert.Equal(migrations.Result{From: 1, To: 1}, res)
	assert.False(res.Changed())

	require.NoError(m.Down(ctx))
	assert.False(tableExists(t, db, "contacts"))
	v, err = m.Version(ctx)
	require.NoError(err)
	assert.Equal(uint(0), v)
}

func TestMigratorDirtySchema(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	db := openDB(t)
	m, err := migrations.NewMigrator(db, nil)
	require.NoError(err)
	_, err = m.Up(ctx)
	require.NoError(err)

	_, err = db.Exec(`UPDATE schema_migrations SET dirty = 1`)
	require.NoError(err)

	_, err = m.Up(ctx)
	require.ErrorIs(err, migrations.ErrDirtySchema)
	_, err = m.Version(ctx)
	require.ErrorIs(err, migrations.ErrDirtySchema)
}

func TestNewMigratorRequiresDB(t *testing.T) {
	_, err := migrations.NewMigrator(nil, nil)
	assert.Error(t, err)
}
