package cron

import (
	"context"
	"fmt"
	"time"

	"tradocs/config"
	"tradocs/models"
	"tradocs/services/cleanup"
	"tradocs/services/notification"
	"tradocs/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeCleanup runs every cleanup job once.
const TypeCleanup = "cleanup:run"

// PushSender delivers a queued push notification.
type PushSender interface {
	Push(ctx context.Context, payload models.PushPayload) error
}

// CleanupRunner runs the periodic maintenance jobs.
type CleanupRunner interface {
	RunAll(ctx context.Context, now time.Time) (cleanup.Result, error)
}

// RedisOpt points asynq at the queue database.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewMux routes task types to their handlers.
func NewMux(pusher PushSender, cleaner CleanupRunner) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypePush, handlePushTask(pusher))
	mux.HandleFunc(TypeCleanup, handleCleanupTask(cleaner))
	return mux
}

func handlePushTask(pusher PushSender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := notification.ParsePushTask(task)
		if err != nil {
			utils.GetLogger().Error("push task: invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err := pusher.Push(ctx, p); err != nil {
			utils.GetLogger().Warn("push task: delivery failed", zap.String("userID", p.UserID), zap.Error(err))
			return err
		}
		return nil
	}
}

func handleCleanupTask(cleaner CleanupRunner) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		_, err := cleaner.RunAll(ctx, time.Now())
		if err != nil {
			utils.GetLogger().Error("cleanup task failed", zap.Error(err))
		}
		return err
	}
}

// Worker owns the asynq server and the cleanup scheduler.
type Worker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
}

// StartWorker starts processing tasks in the background and registers the
// cleanup job on cleanupCron. Call Shutdown on exit.
func StartWorker(opt asynq.RedisClientOpt, pusher PushSender, cleaner CleanupRunner, cleanupCron string) (*Worker, error) {
	logger := utils.GetLogger()

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})
	scheduler := asynq.NewScheduler(opt, nil)
	if cleanupCron != "" {
		entryID, err := scheduler.Register(cleanupCron, asynq.NewTask(TypeCleanup, nil, asynq.MaxRetry(1)))
		if err != nil {
			return nil, fmt.Errorf("invalid cleanup schedule %q: %w", cleanupCron, err)
		}
		logger.Info("Cleanup job scheduled", zap.String("cron", cleanupCron), zap.String("entryID", entryID))
	}

	mux := NewMux(pusher, cleaner)
	go func() {
		logger.Info("Starting task worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				break
			}
			logger.Warn("Task worker failed to start", zap.Int("attempt", attempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Task worker gave up; background jobs are disabled")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
		if err := scheduler.Start(); err != nil {
			logger.Error("Scheduler failed to start", zap.Error(err))
		}
	}()

	return &Worker{srv: srv, scheduler: scheduler}, nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.srv.Shutdown()
}
