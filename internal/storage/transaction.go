package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrTransactionClosed = errors.New("transaction is already closed")
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Snapshot is a read transaction. Reads made through Storage all see the
// same state of the store. Close the Snapshot, never its Storage.
type Snapshot struct {
	tx      *sql.Tx
	closed  bool
	Storage *SQLiteStorage
}

// BeginSnapshot starts a read-only transaction
func (s *SQLiteStorage) BeginSnapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	view := &SQLiteStorage{db: s.db, q: tx, cfg: s.cfg}
	return &Snapshot{tx: tx, Storage: view}, nil
}

// Close ends the transaction. Nothing was written, so it always rolls back.
func (t *Snapshot) Close() error {
	if t.closed {
		return ErrTransactionClosed
	}
	t.closed = true
	return t.tx.Rollback()
}

// withSnapshot runs fn against a snapshot and closes it afterwards.
func (s *SQLiteStorage) withSnapshot(ctx context.Context, fn func(*SQLiteStorage) error) error {
	snap, err := s.BeginSnapshot(ctx)
	if err != nil {
		return err
	}
	defer snap.Close()
	return fn(snap.Storage)
}
