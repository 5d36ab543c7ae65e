package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradocs/database/repository"
	notificationRepo "tradocs/database/repository/notification"
	profileRepo "tradocs/database/repository/profile"
	"tradocs/models"
	"tradocs/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("notification not found")

// NotificationService persists in-app notifications and fans them out to
// realtime subscribers and push devices.
type NotificationService interface {
	Notify(ctx context.Context, userID, typ, title, message string, data map[string]string) (*models.Notification, error)
	NotifyRole(ctx context.Context, role, typ, title, message string, data map[string]string) error

	List(ctx context.Context, userID string, unreadOnly bool, limit int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error

	// Subscribe streams new notifications for userID until cancel is called or ctx ends.
	Subscribe(ctx context.Context, userID string) (<-chan models.Notification, func(), error)
	// Push delivers a push message to the user's device. A missing token is not an error.
	Push(ctx context.Context, payload models.PushPayload) error
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	Repo     notificationRepo.NotificationRepository
	Profiles profileRepo.ProfileRepository
	Broker   Broker
	Queue    PushQueue
	Pusher   Pusher
}

func NewDefaultNotificationService(
	repo notificationRepo.NotificationRepository,
	profiles profileRepo.ProfileRepository,
	broker Broker,
	queue PushQueue,
	pusher Pusher,
) (*DefaultNotificationService, error) {
	if repo == nil || profiles == nil {
		return nil, fmt.Errorf("notification service initialization error: repository is nil")
	}
	return &DefaultNotificationService{
		Repo:     repo,
		Profiles: profiles,
		Broker:   broker,
		Queue:    queue,
		Pusher:   pusher,
	}, nil
}

// Notify stores the notification. Realtime and push delivery are best effort.
func (s *DefaultNotificationService) Notify(ctx context.Context, userID, typ, title, message string, data map[string]string) (*models.Notification, error) {
	n := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now(),
	}
	if err := s.Repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	logger := utils.GetLogger()
	if s.Broker != nil {
		if err := s.Broker.Publish(ctx, *n); err != nil {
			logger.Warn("Notify: realtime publish failed", zap.String("userID", userID), zap.Error(err))
		}
	}
	if s.Queue != nil {
		push := models.PushPayload{UserID: userID, Title: title, Body: message, Data: withType(data, typ)}
		if err := s.Queue.EnqueuePush(ctx, push); err != nil {
			logger.Warn("Notify: push enqueue failed", zap.String("userID", userID), zap.Error(err))
		}
	}
	return n, nil
}

func withType(data map[string]string, typ string) map[string]string {
	out := make(map[string]string, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["type"] = typ
	return out
}

// NotifyRole notifies every profile holding role. Failures for individual users are logged.
func (s *DefaultNotificationService) NotifyRole(ctx context.Context, role, typ, title, message string, data map[string]string) error {
	profiles, err := s.Profiles.List(ctx, role)
	if err != nil {
		return fmt.Errorf("failed to list %s profiles: %w", role, err)
	}
	for _, p := range profiles {
		if _, err := s.Notify(ctx, p.ID, typ, title, message, data); err != nil {
			utils.GetLogger().Error("NotifyRole: failed to notify", zap.String("role", role), zap.String("userID", p.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *DefaultNotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int64) ([]models.Notification, error) {
	return s.Repo.List(ctx, userID, unreadOnly, limit)
}

func (s *DefaultNotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return translate(s.Repo.MarkRead(ctx, userID, id))
}

func (s *DefaultNotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.Repo.MarkAllRead(ctx, userID)
}

func (s *DefaultNotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.Repo.CountUnread(ctx, userID)
}

func (s *DefaultNotificationService) Delete(ctx context.Context, userID, id string) error {
	return translate(s.Repo.Delete(ctx, userID, id))
}

func (s *DefaultNotificationService) Subscribe(ctx context.Context, userID string) (<-chan models.Notification, func(), error) {
	if s.Broker == nil {
		return nil, nil, fmt.Errorf("realtime delivery is not configured")
	}
	return s.Broker.Subscribe(ctx, userID)
}

// Push looks up the user's FCM token and sends the message.
func (s *DefaultNotificationService) Push(ctx context.Context, payload models.PushPayload) error {
	if s.Pusher == nil {
		return nil
	}
	p, err := s.Profiles.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("Push: could not load profile %s: %w", payload.UserID, err)
	}
	if p.FCMToken == "" {
		utils.GetLogger().Debug("Push: no device token", zap.String("userID", payload.UserID))
		return nil
	}
	data := withType(payload.Data, payload.Data["type"])
	data["role"] = p.Role
	if err := s.Pusher.Send(ctx, p.FCMToken, payload.Title, payload.Body, data); err != nil {
		return fmt.Errorf("Push: failed to send to %s: %w", payload.UserID, err)
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
