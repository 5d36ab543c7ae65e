package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"tradocs/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
)

// TypePush is the asynq task type carrying a models.PushPayload.
const TypePush = "notification:push"

// Pusher sends one push message to a device token.
type Pusher interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// FCMPusher sends through Firebase Cloud Messaging.
type FCMPusher struct {
	Client *messaging.Client
}

func NewFCMPusher(client *messaging.Client) Pusher {
	if client == nil {
		return nil
	}
	return &FCMPusher{Client: client}
}

func (p *FCMPusher) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "document_updates",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	if _, err := p.Client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}

// PushQueue defers push delivery to the background worker.
type PushQueue interface {
	EnqueuePush(ctx context.Context, payload models.PushPayload) error
}

// NewPushTask wraps payload in an asynq task.
func NewPushTask(payload models.PushPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode push payload: %w", err)
	}
	return asynq.NewTask(TypePush, data, asynq.MaxRetry(3)), nil
}

// ParsePushTask decodes the payload of a TypePush task.
func ParsePushTask(task *asynq.Task) (models.PushPayload, error) {
	var p models.PushPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid push payload: %w", err)
	}
	return p, nil
}

// AsynqPushQueue enqueues push tasks on Redis.
type AsynqPushQueue struct {
	Client *asynq.Client
}

func (q *AsynqPushQueue) EnqueuePush(ctx context.Context, payload models.PushPayload) error {
	task, err := NewPushTask(payload)
	if err != nil {
		return err
	}
	if _, err := q.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue push task: %w", err)
	}
	return nil
}
