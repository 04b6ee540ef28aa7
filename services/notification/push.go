package notification

import (
	"context"
	"fmt"

	"wanderly/models"

	"firebase.google.com/go/v4/messaging"
)

// Messenger is the slice of *messaging.Client the sender uses.
type Messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushSender delivers confirmation pushes over FCM topics. Clients subscribe
// to "user-<id>" and "guide-<id>", so no device-token lookup is needed here.
type PushSender struct {
	client Messenger
}

func NewPushSender(client Messenger) (*PushSender, error) {
	if client == nil {
		return nil, fmt.Errorf("push sender initialization error: messaging client is nil")
	}
	return &PushSender{client: client}, nil
}

func UserTopic(userID string) string   { return "user-" + userID }
func GuideTopic(guideID string) string { return "guide-" + guideID }

// SendBookingConfirmed pushes to the traveller and then the guide. Both are
// attempted; the first failure is returned.
func (s *PushSender) SendBookingConfirmed(ctx context.Context, p models.BookingConfirmedPayload) error {
	data := map[string]string{
		"type":      "booking_confirmed",
		"bookingId": p.BookingID,
		"tourId":    p.TourID,
		"startDate": p.StartDate,
		"endDate":   p.EndDate,
	}

	messages := []*messaging.Message{
		{
			Topic:        UserTopic(p.UserID),
			Notification: &messaging.Notification{Title: "Booking confirmed", Body: "Your payment was received."},
			Data:         withRole(data, "user"),
		},
		{
			Topic:        GuideTopic(p.GuideID),
			Notification: &messaging.Notification{Title: "New booking", Body: "A tour booking was paid and added to your calendar."},
			Data:         withRole(data, "guide"),
			Android: &messaging.AndroidConfig{
				Priority: "high",
			},
		},
	}

	var firstErr error
	for _, msg := range messages {
		if _, err := s.client.Send(ctx, msg); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("send push to topic %s: %w", msg.Topic, err)
		}
	}
	return firstErr
}

func withRole(data map[string]string, role string) map[string]string {
	out := make(map[string]string, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["role"] = role
	return out
}
