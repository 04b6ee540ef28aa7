package models

import (
	"fmt"
	"time"
)

// BookingStatus is the lifecycle status of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks the financial state of a booking.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// BookingDates holds calendar days. A nil EndDate means a single-day booking.
type BookingDates struct {
	StartDate time.Time  `bson:"startDate" json:"startDate"`
	EndDate   *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
}

// End returns EndDate, defaulting to StartDate.
func (d BookingDates) End() time.Time {
	if d.EndDate == nil {
		return d.StartDate
	}
	return *d.EndDate
}

// Booking represents a tour booking and its payment state.
type Booking struct {
	ID                    string        `bson:"id" json:"id"`
	UserID                string        `bson:"userId" json:"userId"`
	TourID                string        `bson:"tourId" json:"tourId"`
	GuideID               string        `bson:"guideId" json:"guideId"`
	Dates                 BookingDates  `bson:"dates" json:"dates"`
	Travelers             int           `bson:"travelers" json:"travelers"`
	TotalPrice            float64       `bson:"totalPrice" json:"totalPrice"`
	Status                BookingStatus `bson:"status" json:"status"`
	PaymentStatus         PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	StripeSessionID       string        `bson:"stripeSessionId,omitempty" json:"stripeSessionId,omitempty"`
	StripePaymentIntentID string        `bson:"stripePaymentIntentId,omitempty" json:"stripePaymentIntentId,omitempty"`
	ConfirmedAt           *time.Time    `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CreatedAt             time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// IsPaid reports whether the payment has been recorded.
func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusPaid
}

// BusyRange is the span of days this booking blocks on the guide's calendar.
func (b *Booking) BusyRange() DateRange {
	return DateRange{
		Start: b.Dates.StartDate,
		End:   b.Dates.End(),
		Note:  BookingNote(b.ID),
	}
}

// BookingNote is the provenance note attached to a busy range.
func BookingNote(bookingID string) string {
	return "Booking " + bookingID
}

// Validate checks the creation-time invariants of a booking.
func (b *Booking) Validate() error {
	switch {
	case b.UserID == "":
		return fmt.Errorf("%w: userId is required", ErrValidation)
	case b.TourID == "":
		return fmt.Errorf("%w: tourId is required", ErrValidation)
	case b.GuideID == "":
		return fmt.Errorf("%w: guideId is required", ErrValidation)
	case b.Dates.StartDate.IsZero():
		return fmt.Errorf("%w: startDate is required", ErrValidation)
	case b.Travelers < 1:
		return fmt.Errorf("%w: travelers must be at least 1", ErrValidation)
	case b.TotalPrice < 0:
		return fmt.Errorf("%w: totalPrice must not be negative", ErrValidation)
	}
	if b.Dates.EndDate != nil && b.Dates.EndDate.Before(b.Dates.StartDate) {
		return fmt.Errorf("%w: endDate is before startDate", ErrValidation)
	}
	if b.Status != "" && !b.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, b.Status)
	}
	if b.PaymentStatus != "" && !b.PaymentStatus.IsValid() {
		return fmt.Errorf("%w: unknown payment status %q", ErrValidation, b.PaymentStatus)
	}
	return nil
}

// Clone returns a copy that shares no pointers with b.
func (b *Booking) Clone() *Booking {
	cp := *b
	if b.Dates.EndDate != nil {
		end := *b.Dates.EndDate
		cp.Dates.EndDate = &end
	}
	if b.ConfirmedAt != nil {
		at := *b.ConfirmedAt
		cp.ConfirmedAt = &at
	}
	return &cp
}
