package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrDatabaseNotFound = errors.New("database not found")
	ErrSchemaMissing    = errors.New("schema missing")
)

// requiredTables are the tables the producing application must have created.
var requiredTables = []string{"users", "appointments"}

// SQLiteStorage handles all read access to the store
type SQLiteStorage struct {
	db  *sql.DB
	q   querier
	cfg Config
}

// NewSQLiteStorage wraps an already opened database handle
func NewSQLiteStorage(db *sql.DB, cfg Config) *SQLiteStorage {
	return &SQLiteStorage{db: db, q: db, cfg: cfg}
}

// Open opens the store read-only with the given configuration.
// A missing or unopenable file is reported as ErrDatabaseNotFound.
func Open(cfg Config) (*SQLiteStorage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatabaseNotFound, cfg.Path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDatabaseNotFound, cfg.Path)
	}

	db, err := sql.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One fresh connection per report, never pooled.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to connect to %s: %v", ErrDatabaseNotFound, cfg.Path, err)
	}

	return NewSQLiteStorage(db, cfg), nil
}

// Probe checks that the store can be opened and holds the expected tables.
func Probe(cfg Config) error {
	s, err := Open(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	defer cancel()
	return s.VerifySchema(ctx)
}

// VerifySchema returns ErrSchemaMissing naming every required table that
// does not exist.
func (s *SQLiteStorage) VerifySchema(ctx context.Context) error {
	var missing []string
	for _, table := range requiredTables {
		var exists bool
		err := s.q.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM sqlite_master
				WHERE type = 'table' AND name = ?
			)`, table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no table %s", ErrSchemaMissing, strings.Join(missing, ", "))
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// queryContext bounds a single read by the configured query timeout.
func (s *SQLiteStorage) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}
