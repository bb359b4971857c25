package postgres

import (
	"context"
	"fmt"

	"github.com/harborview-rehab/scheduler/pkg/db"
)

// InsertAuditEntry appends one audit log row
func (d *DB) InsertAuditEntry(ctx context.Context, entry *db.AuditEntry) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, action, target_type, target_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.ActorID, entry.Action, entry.TargetType, entry.TargetID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// InsertNotifications inserts notification rows in a single transaction
func (d *DB) InsertNotifications(ctx context.Context, notifications []db.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, n := range notifications {
		_, err := tx.Exec(ctx, `
			INSERT INTO notification (id, user_id, event_type, title, message, target_type, target_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, n.ID, n.UserID, n.EventType, n.Title, n.Message, n.TargetType, n.TargetID, n.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
