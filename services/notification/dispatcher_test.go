package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"wanderly/models"
	"wanderly/services/tasks"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type fakeQueue struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	q.opts = append(q.opts, opts)
	return &asynq.TaskInfo{ID: "task-1", Queue: tasks.NotificationsQueue}, nil
}

func confirmedBooking() *models.Booking {
	end := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	return &models.Booking{
		ID: "B1", UserID: "U1", GuideID: "G1", TourID: "T1",
		Dates:      models.BookingDates{StartDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), EndDate: &end},
		Travelers:  2,
		TotalPrice: 300,
	}
}

func TestQueueDispatcherEnqueues(t *testing.T) {
	q := &fakeQueue{}
	d, err := NewQueueDispatcher(q, zap.NewNop())
	if err != nil {
		t.Fatalf("NewQueueDispatcher: %v", err)
	}

	if err := d.BookingConfirmed(context.Background(), confirmedBooking()); err != nil {
		t.Fatalf("BookingConfirmed: %v", err)
	}
	if len(q.tasks) != 1 || q.tasks[0].Type() != tasks.TypeBookingConfirmed {
		t.Fatalf("enqueued = %v", q.tasks)
	}

	p, err := tasks.ParseBookingConfirmed(q.tasks[0])
	if err != nil {
		t.Fatalf("ParseBookingConfirmed: %v", err)
	}
	want := models.BookingConfirmedPayload{
		BookingID: "B1", UserID: "U1", GuideID: "G1", TourID: "T1",
		StartDate: "2025-06-10", EndDate: "2025-06-12", Travelers: 2, TotalPrice: 300,
	}
	if p != want {
		t.Errorf("payload = %+v, want %+v", p, want)
	}
}

func TestQueueDispatcherDuplicateIsSuccess(t *testing.T) {
	for _, qerr := range []error{asynq.ErrTaskIDConflict, asynq.ErrDuplicateTask} {
		d, _ := NewQueueDispatcher(&fakeQueue{err: qerr}, zap.NewNop())
		if err := d.BookingConfirmed(context.Background(), confirmedBooking()); err != nil {
			t.Errorf("%v: got %v, want nil", qerr, err)
		}
	}

	d, _ := NewQueueDispatcher(&fakeQueue{err: errors.New("redis down")}, zap.NewNop())
	if err := d.BookingConfirmed(context.Background(), confirmedBooking()); err == nil {
		t.Error("expected enqueue failure to surface")
	}
}

func TestNewQueueDispatcherRequiresQueue(t *testing.T) {
	if _, err := NewQueueDispatcher(nil, nil); err == nil {
		t.Fatal("expected error for nil queue")
	}
}

type fakeMessenger struct {
	sent []*messaging.Message
	fail map[string]error
}

func (m *fakeMessenger) Send(_ context.Context, msg *messaging.Message) (string, error) {
	if err := m.fail[msg.Topic]; err != nil {
		return "", err
	}
	m.sent = append(m.sent, msg)
	return "projects/x/messages/1", nil
}

func TestPushSenderTargetsBothTopics(t *testing.T) {
	m := &fakeMessenger{}
	s, err := NewPushSender(m)
	if err != nil {
		t.Fatalf("NewPushSender: %v", err)
	}
	if err := s.SendBookingConfirmed(context.Background(), PayloadFor(confirmedBooking())); err != nil {
		t.Fatalf("SendBookingConfirmed: %v", err)
	}
	if len(m.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(m.sent))
	}
	if m.sent[0].Topic != "user-U1" || m.sent[0].Data["role"] != "user" {
		t.Errorf("first message = %+v", m.sent[0])
	}
	if m.sent[1].Topic != "guide-G1" || m.sent[1].Data["role"] != "guide" || m.sent[1].Data["bookingId"] != "B1" {
		t.Errorf("second message = %+v", m.sent[1])
	}
}

func TestPushSenderAttemptsAllTopics(t *testing.T) {
	m := &fakeMessenger{fail: map[string]error{"user-U1": errors.New("quota")}}
	s, _ := NewPushSender(m)
	err := s.SendBookingConfirmed(context.Background(), PayloadFor(confirmedBooking()))
	if err == nil {
		t.Fatal("expected the user push failure to be returned")
	}
	if len(m.sent) != 1 || m.sent[0].Topic != "guide-G1" {
		t.Errorf("guide push should still be sent, sent = %v", m.sent)
	}
}
