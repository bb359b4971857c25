// Package notify delivers schedule-change notifications to therapists: a
// persisted in-app notification row always, plus an email when a mailer is
// configured. Delivery is fire-and-forget; failures are logged and never
// block the mutation's response.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/db"
)

// Store defines the database operations the notifier needs
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	InsertNotifications(ctx context.Context, notifications []db.Notification) error
}

// Mailer sends a single email. gmailclient.Client implements this.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// Service implements engine.Notifier
type Service struct {
	store  Store
	mailer Mailer // nil disables email delivery
	logger *zap.Logger
}

// New creates a notifier. Pass a nil mailer to persist in-app rows only.
func New(store Store, mailer Mailer, logger *zap.Logger) *Service {
	return &Service{store: store, mailer: mailer, logger: logger}
}

// NotifyUsers records a notification row per user and emails each user who
// has an address on file. Failures are logged, not returned.
func (s *Service) NotifyUsers(ctx context.Context, userIDs []string, eventType, title, message, targetType, targetID string) {
	if len(userIDs) == 0 {
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	notifications := make([]db.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, db.Notification{
			ID:         uuid.NewString(),
			UserID:     userID,
			EventType:  eventType,
			Title:      title,
			Message:    message,
			TargetType: targetType,
			TargetID:   targetID,
			CreatedAt:  now,
		})
	}

	if err := s.store.InsertNotifications(ctx, notifications); err != nil {
		s.logger.Warn("Failed to persist notifications",
			zap.String("event_type", eventType),
			zap.Int("count", len(notifications)),
			zap.Error(err))
	}

	if s.mailer == nil {
		return
	}

	for _, userID := range userIDs {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			s.logger.Warn("Failed to load user for email notification",
				zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if user.Email == "" {
			continue
		}
		if err := s.mailer.SendEmail(user.Email, title, message); err != nil {
			s.logger.Warn("Failed to send notification email",
				zap.String("user_id", userID), zap.Error(err))
		}
	}
}
