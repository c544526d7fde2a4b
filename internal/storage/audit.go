package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// AuditStore performs the append-only insert behind the audit log writer
// (component I). Every call must run inside the same transaction as the
// mutation it documents.
type AuditStore struct{}

func (s *AuditStore) Insert(ctx context.Context, tx DBTX, log AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	const q = `
		INSERT INTO audit_logs (action, entity_type, entity_id, actor_user_id, target_user_id, role_id, details, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = tx.Exec(ctx, q, log.Action, log.EntityType, log.EntityID, log.ActorUserID, log.TargetUserID, log.RoleID, detailsJSON, log.IPAddress, log.UserAgent)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListForRole finds audit rows matching (action, actor, target, role).
func (s *AuditStore) ListForRole(ctx context.Context, tx DBTX, action AuditAction, actorID, roleID uuid.UUID, targetID *uuid.UUID) ([]AuditLog, error) {
	const q = `
		SELECT id, action, entity_type, entity_id, actor_user_id, target_user_id, role_id, details, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE action = $1 AND actor_user_id = $2 AND role_id = $3
		  AND ($4::uuid IS NULL OR target_user_id = $4)
		ORDER BY created_at DESC`
	rows, err := tx.Query(ctx, q, action, actorID, roleID, targetID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var l AuditLog
		var detailsJSON []byte
		if err := rows.Scan(&l.ID, &l.Action, &l.EntityType, &l.EntityID, &l.ActorUserID, &l.TargetUserID, &l.RoleID, &detailsJSON, &l.IPAddress, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &l.Details)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
