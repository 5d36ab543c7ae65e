package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"tradocs/models"
	"tradocs/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ChannelPrefix prefixes the per-user pub/sub channel.
const ChannelPrefix = "notifications:"

const subscriberBuffer = 16

// Broker fans notifications out to live subscribers.
type Broker interface {
	Publish(ctx context.Context, n models.Notification) error
	Subscribe(ctx context.Context, userID string) (<-chan models.Notification, func(), error)
}

// RedisBroker publishes on Redis so every API instance can serve subscribers.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return b.client.Publish(ctx, ChannelPrefix+n.UserID, data).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, userID string) (<-chan models.Notification, func(), error) {
	sub := b.client.Subscribe(ctx, ChannelPrefix+userID)
	// wait for the subscription to be confirmed
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan models.Notification, subscriberBuffer)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n models.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					utils.GetLogger().Warn("RedisBroker: dropping malformed message", zap.Error(err))
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, cancel, nil
}

// MemoryBroker delivers within one process.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan models.Notification]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[string]map[chan models.Notification]struct{}{}}
}

// Publish drops the message for subscribers whose buffer is full.
func (b *MemoryBroker) Publish(_ context.Context, n models.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[n.UserID] {
		select {
		case ch <- n:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, userID string) (<-chan models.Notification, func(), error) {
	ch := make(chan models.Notification, subscriberBuffer)
	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = map[chan models.Notification]struct{}{}
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[userID], ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}
