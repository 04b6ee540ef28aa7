package cron

import (
	"context"
	"fmt"
	"time"

	"wanderly/models"
	"wanderly/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ConfirmationSender delivers the pushes for a confirmed booking.
type ConfirmationSender interface {
	SendBookingConfirmed(ctx context.Context, p models.BookingConfirmedPayload) error
}

// NotificationWorker consumes the notifications queue.
type NotificationWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewNotificationWorker(redisOpts asynq.RedisClientOpt, sender ConfirmationSender, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.NotificationsQueue: 6,
				"default":                1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingConfirmed, HandleBookingConfirmed(sender, logger))

	return &NotificationWorker{srv: srv, mux: mux, logger: logger}
}

// Start launches the worker, retrying with backoff when Redis is not ready.
func (w *NotificationWorker) Start(ctx context.Context) error {
	const maxAttempts = 5
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = w.srv.Start(w.mux); err == nil {
			w.logger.Info("notification worker started")
			return nil
		}
		w.logger.Warn("failed to start notification worker",
			zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempts*2) * time.Second):
		}
	}
	return fmt.Errorf("notification worker did not start: %w", err)
}

func (w *NotificationWorker) Shutdown() {
	w.srv.Shutdown()
}

// HandleBookingConfirmed turns a queued confirmation into pushes. A payload
// that cannot be decoded is never retried.
func HandleBookingConfirmed(sender ConfirmationSender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseBookingConfirmed(task)
		if err != nil {
			logger.Error("invalid booking confirmed payload", zap.Error(err))
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
		if p.BookingID == "" {
			logger.Error("booking confirmed payload has no booking id")
			return fmt.Errorf("empty booking id: %w", asynq.SkipRetry)
		}

		if err := sender.SendBookingConfirmed(ctx, p); err != nil {
			logger.Warn("push delivery failed",
				zap.String("bookingId", p.BookingID), zap.Error(err))
			return err
		}
		logger.Debug("booking confirmation pushed", zap.String("bookingId", p.BookingID))
		return nil
	}
}

// MonitorRedisConnection pings the queue database periodically until ctx ends.
func MonitorRedisConnection(ctx context.Context, client *redis.Client, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := client.Ping(pctx).Err(); err != nil {
				logger.Warn("queue redis connection lost", zap.Error(err))
			}
			cancel()
		}
	}
}
