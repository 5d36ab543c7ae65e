package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Mongo     bool      `json:"mongo"`
	Redis     []bool    `json:"redis"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Healthy reports whether every dependency answered the last probe.
func (h HealthStatus) Healthy() bool {
	if !h.Mongo {
		return false
	}
	for _, ok := range h.Redis {
		if !ok {
			return false
		}
	}
	return true
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

func setHealthStatus(h HealthStatus) {
	mu.Lock()
	currentHealth = h
	mu.Unlock()
}

// CheckHealth pings every dependency once and stores the snapshot.
func CheckHealth(ctx context.Context, redisClients []*redis.Client, mongoClient *mongo.Client) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	redisHealth := make([]bool, 0, len(redisClients))
	for _, client := range redisClients {
		redisHealth = append(redisHealth, client.Ping(ctx).Err() == nil)
	}

	status := HealthStatus{
		Mongo:     mongoClient != nil && mongoClient.Ping(ctx, nil) == nil,
		Redis:     redisHealth,
		CheckedAt: time.Now(),
	}
	setHealthStatus(status)
	return status
}

// StartHealthMonitor schedules a health probe every minute. Stop the returned cron on shutdown.
func StartHealthMonitor(redisClients []*redis.Client, mongoClient *mongo.Client) *cron.Cron {
	c := cron.New()
	CheckHealth(context.Background(), redisClients, mongoClient)

	_, err := c.AddFunc("@every 1m", func() {
		status := CheckHealth(context.Background(), redisClients, mongoClient)
		if !status.Healthy() {
			GetLogger().Warn("health probe failed", zap.Bool("mongo", status.Mongo), zap.Bools("redis", status.Redis))
		}
	})
	if err != nil {
		GetLogger().Error("failed to schedule health monitor", zap.Error(err))
		return c
	}
	c.Start()
	return c
}
