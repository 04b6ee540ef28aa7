package booking

import (
	"fmt"

	"wanderly/models"
)

var (
	ErrMissingBookingID = fmt.Errorf("%w: bookingId is required", models.ErrValidation)
	ErrMissingActor     = fmt.Errorf("%w: no actor identity", models.ErrUnauthorized)
)

// ForbiddenError names the actor that was refused.
type ForbiddenError struct {
	BookingID string
	ActorID   string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("actor %q may not confirm booking %s", e.ActorID, e.BookingID)
}

func (e *ForbiddenError) Unwrap() error { return models.ErrForbidden }
