package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"wanderly/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// MetadataBookingKey is the metadata key checkout sessions and payment
// intents carry the booking id under.
const MetadataBookingKey = "bookingId"

// PaymentLookup re-fetches provider objects when an event arrives without
// the metadata needed to resolve a booking.
type PaymentLookup interface {
	PaymentIntentMetadata(ctx context.Context, paymentIntentID string) (map[string]string, error)
}

// StripeGateway wraps a per-instance Stripe API client.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe gateway initialization error: secret key is empty")
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}, nil
}

func (g *StripeGateway) PaymentIntentMetadata(ctx context.Context, paymentIntentID string) (map[string]string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return nil, wrapStripeError("fetch payment intent "+paymentIntentID, err)
	}
	return pi.Metadata, nil
}

// LookupCheckoutSession reports whether a hosted checkout was paid and which
// booking it references.
func (g *StripeGateway) LookupCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutSessionInfo, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, wrapStripeError("fetch checkout session "+sessionID, err)
	}
	return checkoutInfo(sess), nil
}

func checkoutInfo(sess *stripe.CheckoutSession) *models.CheckoutSessionInfo {
	info := &models.CheckoutSessionInfo{
		SessionID: sess.ID,
		Paid:      sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		BookingID: bookingIDFrom(sess.Metadata),
	}
	if info.BookingID == "" {
		info.BookingID = sess.ClientReferenceID
	}
	if sess.PaymentIntent != nil {
		info.PaymentIntentID = sess.PaymentIntent.ID
	}
	return info
}

func bookingIDFrom(metadata map[string]string) string {
	if metadata == nil {
		return ""
	}
	if id := metadata[MetadataBookingKey]; id != "" {
		return id
	}
	return metadata["booking_id"]
}

func wrapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %w", models.ErrUpstreamUnavailable, op, err)
}
