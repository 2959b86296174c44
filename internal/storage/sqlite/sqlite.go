package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/gavet/crmdialer/internal/log"
	"github.com/gavet/crmdialer/internal/model"
	"github.com/gavet/crmdialer/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository. A single connection is used so
// every statement is serialized, and multi statement mutations run inside a transaction.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository and applies the schema migrations.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	schema, err := migrator.Up(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s (schema v%d)", cfg.DBPath, schema.To)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// EnsureSchema marks the store as initialized. Tables are created by the migrations, this
// only reports if it is the first time the store is used.
func (r *Repository) EnsureSchema(ctx context.Context) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO schema_info (id, created_at) VALUES (1, ?) ON CONFLICT(id) DO NOTHING`, time.Now().UTC().Unix())
	if err != nil {
		return false, fmt.Errorf("could not initialize schema: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not get rows affected: %w", err)
	}

	return rows == 1, nil
}

// ListContacts returns the contacts in insertion order.
func (r *Repository) ListContacts(ctx context.Context) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, phone FROM contacts WHERE code <> '' ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("could not query contacts: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t := model.Task{Origin: model.TaskOriginBulk}
		if err := rows.Scan(&t.Code, &t.Phone); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tasks, nil
}

// AppendContact appends a contact.
func (r *Repository) AppendContact(ctx context.Context, t model.Task) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO contacts (code, phone) VALUES (?, ?)`, t.Code, t.Phone)
	if err != nil {
		return fmt.Errorf("could not insert contact: %w", err)
	}

	r.logger.Debugf("Appended contact: %s", t.Code)
	return nil
}

// UpdateContactPhone sets the phone of the first contact with the code.
func (r *Repository) UpdateContactPhone(ctx context.Context, code, phone string) error {
	query := `
		UPDATE contacts
		SET phone = ?
		WHERE seq = (SELECT MIN(seq) FROM contacts WHERE code = ?)
	`

	result, err := r.db.ExecContext(ctx, query, phone, code)
	if err != nil {
		return fmt.Errorf("could not update contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		r.logger.Warningf("Contact %s not found, phone not updated", code)
		return nil
	}

	r.logger.Infof("Phone %s updated for code %s", phone, code)
	return nil
}

// ListPriorityCodes returns the pending priority codes in insertion order.
func (r *Repository) ListPriorityCodes(ctx context.Context) ([]string, error) {
	return r.queryCodes(ctx, `SELECT code FROM priority WHERE code <> '' ORDER BY seq ASC`)
}

// AppendPriorityCodes appends codes to the priority list in a single transaction.
func (r *Repository) AppendPriorityCodes(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // Rollback is safe to call after Commit

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO priority (code) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, code := range codes {
		if _, err := stmt.ExecContext(ctx, code); err != nil {
			return fmt.Errorf("could not insert priority code: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Added %d priority codes", len(codes))
	return nil
}

// ClearPriority removes all the priority codes.
func (r *Repository) ClearPriority(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM priority`); err != nil {
		return fmt.Errorf("could not clear priority: %w", err)
	}

	r.logger.Infof("Priority list cleared")
	return nil
}

// AppendResult appends a result record.
func (r *Repository) AppendResult(ctx context.Context, rec model.ResultRecord) error {
	query := `INSERT INTO results (id, code, phone, hour, date, observation) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, ulid.Make().String(), rec.Code, rec.Phone, rec.Time, rec.Date, rec.Observation)
	if err != nil {
		return fmt.Errorf("could not insert result: %w", err)
	}

	r.logger.Debugf("Appended result for code %s", rec.Code)
	return nil
}

// ListResults returns the result records in insertion order.
func (r *Repository) ListResults(ctx context.Context) ([]model.ResultRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, phone, hour, date, observation FROM results ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("could not query results: %w", err)
	}
	defer rows.Close()

	var results []model.ResultRecord
	for rows.Next() {
		var rec model.ResultRecord
		if err := rows.Scan(&rec.Code, &rec.Phone, &rec.Time, &rec.Date, &rec.Observation); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// ListResultCodes returns the codes present in the result log.
func (r *Repository) ListResultCodes(ctx context.Context) ([]string, error) {
	return r.queryCodes(ctx, `SELECT code FROM results ORDER BY rowid ASC`)
}

// AppendCallback appends a callback record.
func (r *Repository) AppendCallback(ctx context.Context, c model.CallbackRecord) error {
	query := `INSERT INTO callbacks (id, code, phone, hour, date, status) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, ulid.Make().String(), c.Code, c.Phone, c.Time, c.Date, c.Status)
	if err != nil {
		return fmt.Errorf("could not insert callback: %w", err)
	}

	r.logger.Debugf("Appended callback for code %s", c.Code)
	return nil
}

// ListCallbacks returns the callback records in insertion order.
func (r *Repository) ListCallbacks(ctx context.Context) ([]model.CallbackRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, phone, hour, date, status FROM callbacks ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("could not query callbacks: %w", err)
	}
	defer rows.Close()

	var callbacks []model.CallbackRecord
	for rows.Next() {
		var c model.CallbackRecord
		if err := rows.Scan(&c.Code, &c.Phone, &c.Time, &c.Date, &c.Status); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		callbacks = append(callbacks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return callbacks, nil
}

func (r *Repository) queryCodes(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return codes, nil
}
