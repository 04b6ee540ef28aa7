package models

// CheckoutSessionInfo is what the payment provider reports about a hosted checkout.
type CheckoutSessionInfo struct {
	SessionID       string
	Paid            bool
	BookingID       string
	PaymentIntentID string
}
