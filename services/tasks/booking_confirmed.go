package tasks

import (
	"encoding/json"
	"time"

	"wanderly/models"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingConfirmed = "booking:confirmed"
	NotificationsQueue   = "notifications"
)

// NewBookingConfirmedTask builds the notification task for a confirmed
// booking. The task id is derived from the booking so a second enqueue for
// the same booking is rejected by the queue.
func NewBookingConfirmedTask(payload models.BookingConfirmedPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingConfirmed, b)
	opts := []asynq.Option{
		asynq.TaskID(BookingConfirmedTaskID(payload.BookingID)),
		asynq.Queue(NotificationsQueue),
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
		asynq.Retention(24 * time.Hour),
	}
	return task, opts, nil
}

func BookingConfirmedTaskID(bookingID string) string {
	return TypeBookingConfirmed + ":" + bookingID
}

// ParseBookingConfirmed decodes a task payload.
func ParseBookingConfirmed(task *asynq.Task) (models.BookingConfirmedPayload, error) {
	var p models.BookingConfirmedPayload
	err := json.Unmarshal(task.Payload(), &p)
	return p, err
}
