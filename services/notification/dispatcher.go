package notification

import (
	"context"
	"errors"
	"fmt"

	"wanderly/models"
	"wanderly/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Dispatcher hands confirmation side effects to the delivery pipeline.
type Dispatcher interface {
	BookingConfirmed(ctx context.Context, booking *models.Booking) error
}

// Enqueuer is the slice of *asynq.Client the dispatcher uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueDispatcher enqueues an asynq task that the worker turns into pushes.
type QueueDispatcher struct {
	queue  Enqueuer
	logger *zap.Logger
}

func NewQueueDispatcher(queue Enqueuer, logger *zap.Logger) (*QueueDispatcher, error) {
	if queue == nil {
		return nil, fmt.Errorf("notification dispatcher initialization error: queue client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueDispatcher{queue: queue, logger: logger}, nil
}

func (d *QueueDispatcher) BookingConfirmed(ctx context.Context, booking *models.Booking) error {
	task, opts, err := tasks.NewBookingConfirmedTask(PayloadFor(booking))
	if err != nil {
		return fmt.Errorf("build booking confirmed task: %w", err)
	}
	info, err := d.queue.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		d.logger.Debug("confirmation notification already queued", zap.String("bookingId", booking.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue booking confirmed task: %w", err)
	}
	d.logger.Info("confirmation notification queued",
		zap.String("bookingId", booking.ID),
		zap.String("taskId", info.ID),
		zap.String("queue", info.Queue))
	return nil
}

// PayloadFor flattens a booking into the queued payload.
func PayloadFor(b *models.Booking) models.BookingConfirmedPayload {
	return models.BookingConfirmedPayload{
		BookingID:  b.ID,
		UserID:     b.UserID,
		GuideID:    b.GuideID,
		TourID:     b.TourID,
		StartDate:  b.Dates.StartDate.UTC().Format(models.DayLayout),
		EndDate:    b.Dates.End().UTC().Format(models.DayLayout),
		Travelers:  b.Travelers,
		TotalPrice: b.TotalPrice,
	}
}

// LogDispatcher only logs; used when the queue is disabled.
type LogDispatcher struct {
	Logger *zap.Logger
}

func (d LogDispatcher) BookingConfirmed(_ context.Context, booking *models.Booking) error {
	if d.Logger != nil {
		d.Logger.Info("notifications disabled; skipping booking confirmed dispatch", zap.String("bookingId", booking.ID))
	}
	return nil
}
