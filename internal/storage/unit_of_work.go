package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistent store adapter: typed CRUD over the relational
// tables plus a transactional unit of work per inbound request.
type Store struct {
	Pool *pgxpool.Pool

	Users       *UserStore
	Roles       *RoleStore
	Permissions *PermissionStore
	Documents   *DocumentStore
	Audit       *AuditStore
}

// New wires a Store and its entity repositories around a pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		Pool:        pool,
		Users:       &UserStore{},
		Roles:       &RoleStore{},
		Permissions: &PermissionStore{},
		Documents:   &DocumentStore{},
		Audit:       &AuditStore{},
	}
}

// WithTx runs fn inside one transaction, the atomicity boundary for a
// single inbound operation: commit on success, rollback on any error or
// cancellation. fn receives a DBTX so repository methods work unmodified
// whether called against the pool or a transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx DBTX) error) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // safe no-op after Commit

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time assertions that both a pool and a tx satisfy DBTX.
var (
	_ DBTX = (*pgxpool.Pool)(nil)
	_ DBTX = (pgx.Tx)(nil)
)
