package sql

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/storage"
	"github.com/go-faster/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
	now    func() time.Time
}

// Ensure Store implements storage.Storage.
var _ storage.Storage = (*Store)(nil)

// New creates a new SQL store and runs the embedded migrations.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "setting goose dialect")
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "running migrations")
	}

	return NewWithDB(db, driver), nil
}

// NewWithDB wraps an already migrated connection.
func NewWithDB(db *sqlx.DB, driver string) *Store {
	return &Store{db: db, driver: driver, now: time.Now}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, scope, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM client_state WHERE scope = $1 AND state_key = $2`,
		scope, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", key)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, scope, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_state (scope, state_key, value, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (scope, state_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		scope, key, value, s.now().UTC())
	if err != nil {
		return errors.Wrapf(err, "writing %s", key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, scope, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM client_state WHERE scope = $1 AND state_key = $2`,
		scope, key)
	if err != nil {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, scope string) ([]string, error) {
	keys := []string{}
	err := s.db.SelectContext(ctx, &keys,
		`SELECT state_key FROM client_state WHERE scope = $1 ORDER BY state_key`,
		scope)
	if err != nil {
		return nil, errors.Wrap(err, "listing keys")
	}
	return keys, nil
}

func (s *Store) ClearScope(ctx context.Context, scope string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_state WHERE scope = $1`, scope)
	if err != nil {
		return errors.Wrap(err, "clearing scope")
	}
	return nil
}
