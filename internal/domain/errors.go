package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNotEligible        = errors.New("payout not eligible for release")
	ErrPaymentIncomplete  = errors.New("payment has not succeeded")
	ErrInvalidAmounts     = errors.New("invalid booking amounts")
	ErrListingUnavailable = errors.New("listing is not available for booking")
)
