package notificationRepo

import (
	"context"
	"time"

	"tradocs/models"
)

// NotificationRepository defines data access for in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// List returns a user's notifications, newest first. limit <= 0 means no limit.
	List(ctx context.Context, userID string, unreadOnly bool, limit int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	// DeleteReadBefore removes read notifications created before cutoff.
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
