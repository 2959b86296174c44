// Package migrations has the versioned schema of the SQLite task store: the contacts, the
// priority queue, the results and callbacks logs and the store initialization marker.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/gavet/crmdialer/internal/log"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// ErrDirtySchema is returned when a previous migration of the task store was interrupted and
// the schema needs a manual fix.
var ErrDirtySchema = errors.New("task store schema is dirty")

// Result is the schema version before and after applying the migrations.
type Result struct {
	From uint
	To   uint
}

// Changed returns true when any migration was applied.
func (r Result) Changed() bool { return r.From != r.To }

// Migrator keeps the task store tables up to date.
type Migrator struct {
	db     *sql.DB
	logger log.Logger
}

// NewMigrator returns a migrator over an open task store database.
func NewMigrator(db *sql.DB, logger log.Logger) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = log.Noop
	}

	return &Migrator{
		db:     db,
		logger: logger.WithValues(log.Kv{"svc": "storage.SQLiteMigrator"}),
	}, nil
}

// Up brings the task store tables to the latest schema. Stores already on it are left
// untouched.
func (m *Migrator) Up(ctx context.Context) (Result, error) {
	inst, closeSrc, err := m.instance()
	defer closeSrc()
	if err != nil {
		return Result{}, err
	}

	from, err := m.version(inst)
	if err != nil {
		return Result{}, err
	}

	if err := inst.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return Result{}, fmt.Errorf("could not migrate task store from v%d: %w", from, err)
	}

	to, err := m.version(inst)
	if err != nil {
		return Result{}, err
	}

	res := Result{From: from, To: to}
	if res.Changed() {
		m.logger.Infof("Task store schema migrated from v%d to v%d", from, to)
	} else {
		m.logger.Debugf("Task store schema is up to date (v%d)", to)
	}
	return res, nil
}

// Version returns the task store schema version, 0 when the store was never migrated.
func (m *Migrator) Version(ctx context.Context) (uint, error) {
	inst, closeSrc, err := m.instance()
	defer closeSrc()
	if err != nil {
		return 0, err
	}

	return m.version(inst)
}

// Down drops every task store table. All the stored contacts and logs are lost.
func (m *Migrator) Down(ctx context.Context) error {
	inst, closeSrc, err := m.instance()
	defer closeSrc()
	if err != nil {
		return err
	}

	if err := inst.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not drop task store tables: %w", err)
	}

	m.logger.Warningf("Task store tables dropped")
	return nil
}

func (m *Migrator) version(inst *migrate.Migrate) (uint, error) {
	v, dirty, err := inst.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("could not get task store schema version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("v%d: %w", v, ErrDirtySchema)
	}
	return v, nil
}

// instance returns a migrate instance over the embedded task store schema. Only the source is
// closed afterwards, closing the instance would close the shared database handle.
func (m *Migrator) instance() (*migrate.Migrate, func(), error) {
	noop := func() {}

	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		return nil, noop, fmt.Errorf("could not create sqlite migration driver: %w", err)
	}

	src, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return nil, noop, fmt.Errorf("could not read embedded schema: %w", err)
	}
	closeSrc := func() {
		if err := src.Close(); err != nil {
			m.logger.Errorf("Could not close embedded schema source: %s", err)
		}
	}

	inst, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, closeSrc, fmt.Errorf("could not create migration instance: %w", err)
	}

	return inst, closeSrc, nil
}
