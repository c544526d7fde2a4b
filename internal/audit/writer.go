// Package audit implements the audit log writer (component I): a thin
// wrapper over the storage layer that must be called inside the same
// transaction as the mutation it documents.
package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/genes8/docuguard/internal/storage"
)

// Record carries the fields needed for one audit_logs row.
type Record struct {
	Action       storage.AuditAction
	EntityType   string
	EntityID     uuid.UUID
	ActorUserID  uuid.UUID
	TargetUserID *uuid.UUID
	RoleID       *uuid.UUID
	Details      map[string]any
	IPAddress    *string
	UserAgent    *string
}

// Writer appends audit rows via the store's AuditStore.
type Writer struct {
	store *storage.Store
}

// New wires a writer against the shared store.
func New(store *storage.Store) *Writer {
	return &Writer{store: store}
}

// Write inserts r inside tx — the caller's mutation transaction, never a
// transaction of its own, so a rollback of the mutation also rolls back
// its audit trail.
func (w *Writer) Write(ctx context.Context, tx storage.DBTX, r Record) error {
	return w.store.Audit.Insert(ctx, tx, storage.AuditLog{
		Action:       r.Action,
		EntityType:   r.EntityType,
		EntityID:     r.EntityID,
		ActorUserID:  r.ActorUserID,
		TargetUserID: r.TargetUserID,
		RoleID:       r.RoleID,
		Details:      r.Details,
		IPAddress:    r.IPAddress,
		UserAgent:    r.UserAgent,
	})
}
