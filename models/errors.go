package models

import "errors"

// Error taxonomy shared by repositories, services and handlers.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidRange        = errors.New("invalid range")
	ErrValidation          = errors.New("validation failed")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
