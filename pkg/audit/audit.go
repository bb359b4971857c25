// Package audit persists the who-did-what-to-what trail for schedule
// mutations. Writes are fire-and-forget: a failed audit write is logged and
// never blocks the mutation's response.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborview-rehab/scheduler/pkg/db"
)

// Store defines the database operations the audit writer needs
type Store interface {
	InsertAuditEntry(ctx context.Context, entry *db.AuditEntry) error
}

// Service implements engine.Auditor against a store
type Service struct {
	store  Store
	logger *zap.Logger
}

// New creates an audit writer
func New(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// WriteAuditLog records one audit entry. Failures are logged, not returned.
func (s *Service) WriteAuditLog(ctx context.Context, actorID, action, targetType, targetID string) {
	entry := &db.AuditEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.store.InsertAuditEntry(ctx, entry); err != nil {
		s.logger.Warn("Failed to write audit log",
			zap.String("actor_id", actorID),
			zap.String("action", action),
			zap.String("target_id", targetID),
			zap.Error(err))
	}
}
