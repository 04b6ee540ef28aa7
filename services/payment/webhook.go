package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	webhookRepo "wanderly/database/repository/webhook"
	"wanderly/models"
	"wanderly/services/booking"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// Outcome statuses reported back to the provider. All of them are acknowledged.
const (
	StatusProcessed        = "processed"
	StatusAlreadyConfirmed = "already_confirmed"
	StatusDuplicate        = "duplicate"
	StatusIgnored          = "ignored"
	StatusUnresolved       = "unresolved"
)

type WebhookOutcome struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
	Status    string `json:"status"`
	BookingID string `json:"bookingId,omitempty"`
}

// WebhookProcessor turns verified provider events into engine calls.
type WebhookProcessor struct {
	Secret  string
	Engine  booking.ConfirmationEngine
	Lookup  PaymentLookup
	Ledger  webhookRepo.Ledger
	Logger  *zap.Logger
	Timeout time.Duration
}

// Handle verifies the signature before reading anything else. It returns an
// error only for a bad signature (models.ErrInvalidSignature) or a failure
// worth a provider retry (models.ErrUpstreamUnavailable).
func (p *WebhookProcessor) Handle(ctx context.Context, payload []byte, signature string) (*WebhookOutcome, error) {
	// An empty secret would accept events signed with an empty key.
	if p.Secret == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", models.ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidSignature, err)
	}

	log := p.logger().With(zap.String("eventId", event.ID), zap.String("eventType", string(event.Type)))
	outcome := &WebhookOutcome{EventID: event.ID, EventType: string(event.Type)}

	if p.Ledger != nil && event.ID != "" {
		seen, err := p.Ledger.Seen(ctx, event.ID)
		if err != nil {
			log.Warn("webhook ledger unavailable; processing anyway", zap.Error(err))
		} else if seen {
			outcome.Status = StatusDuplicate
			log.Info("duplicate webhook delivery acknowledged")
			return outcome, nil
		}
	}

	ref, handled, err := p.resolve(ctx, event)
	if err != nil {
		return nil, err
	}
	if !handled {
		outcome.Status = StatusIgnored
		log.Debug("webhook event type ignored")
		return outcome, nil
	}
	if ref.BookingID == "" {
		outcome.Status = StatusUnresolved
		log.Warn("webhook event carries no booking reference")
		p.markProcessed(ctx, event.ID, log)
		return outcome, nil
	}
	outcome.BookingID = ref.BookingID

	result, err := p.Engine.ConfirmPayment(ctx, booking.ConfirmRequest{
		BookingID:       ref.BookingID,
		Actor:           models.SystemActor("stripe-webhook"),
		PaymentIntentID: ref.PaymentIntentID,
		Source:          "webhook",
	})
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrValidation):
		// Retrying cannot make an unknown booking appear.
		outcome.Status = StatusUnresolved
		log.Warn("webhook references a booking that cannot be confirmed",
			zap.String("bookingId", ref.BookingID), zap.Error(err))
		p.markProcessed(ctx, event.ID, log)
		return outcome, nil
	case err != nil:
		log.Error("webhook confirmation failed", zap.String("bookingId", ref.BookingID), zap.Error(err))
		return nil, err
	}

	outcome.Status = StatusProcessed
	if result.AlreadyConfirmed {
		outcome.Status = StatusAlreadyConfirmed
	}
	p.markProcessed(ctx, event.ID, log)
	return outcome, nil
}

type paymentRef struct {
	BookingID       string
	PaymentIntentID string
}

// resolve extracts the booking reference. handled is false for event types
// this system does not act on.
func (p *WebhookProcessor) resolve(ctx context.Context, event stripe.Event) (paymentRef, bool, error) {
	if event.Data == nil {
		return paymentRef{}, false, nil
	}

	var ref paymentRef
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return paymentRef{}, true, nil
		}
		if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid &&
			sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
			// Delayed methods complete later through async_payment_succeeded.
			return paymentRef{}, false, nil
		}
		info := checkoutInfo(&sess)
		ref = paymentRef{BookingID: info.BookingID, PaymentIntentID: info.PaymentIntentID}

	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return paymentRef{}, true, nil
		}
		ref = paymentRef{BookingID: bookingIDFrom(pi.Metadata), PaymentIntentID: pi.ID}

	case "charge.succeeded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return paymentRef{}, true, nil
		}
		ref.BookingID = bookingIDFrom(ch.Metadata)
		if ch.PaymentIntent != nil {
			ref.PaymentIntentID = ch.PaymentIntent.ID
		}

	default:
		return paymentRef{}, false, nil
	}

	if ref.BookingID == "" && ref.PaymentIntentID != "" && p.Lookup != nil {
		id, err := p.bookingFromPaymentIntent(ctx, ref.PaymentIntentID)
		if err != nil {
			return paymentRef{}, true, err
		}
		ref.BookingID = id
	}
	return ref, true, nil
}

func (p *WebhookProcessor) bookingFromPaymentIntent(ctx context.Context, paymentIntentID string) (string, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	metadata, err := p.Lookup.PaymentIntentMetadata(ctx, paymentIntentID)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		if !errors.Is(err, models.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
		}
		return "", err
	}
	return bookingIDFrom(metadata), nil
}

func (p *WebhookProcessor) markProcessed(ctx context.Context, eventID string, log *zap.Logger) {
	if p.Ledger == nil || eventID == "" {
		return
	}
	if err := p.Ledger.MarkProcessed(ctx, eventID); err != nil {
		log.Warn("failed to record processed webhook event", zap.Error(err))
	}
}

func (p *WebhookProcessor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.Timeout)
}

func (p *WebhookProcessor) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
