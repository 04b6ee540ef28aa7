package availability

import (
	"errors"
	"fmt"

	"wanderly/models"
)

var (
	ErrEmptyRanges = fmt.Errorf("%w: ranges must not be empty", models.ErrValidation)
	ErrInvalidMode = fmt.Errorf("%w: mode must be \"add\" or \"replace\"", models.ErrValidation)
)

// upstream tags store and lock failures as retryable, leaving not-found as is.
func upstream(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", models.ErrUpstreamUnavailable, op, err)
}
