package booking

import (
	"fmt"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/models"
)

// Requestable reports whether a check state may be requested by a caller.
func Requestable(s models.BookingStatus) bool {
	switch s {
	case models.BookingCheckin, models.BookingCheckout, models.BookingCancel:
		return true
	}
	return false
}

// Transition returns the status a booking moves to. Pairs missing from the
// table are rejected and nothing may be written.
func Transition(current, requested models.BookingStatus) (models.BookingStatus, error) {
	if !Requestable(requested) {
		return current, fmt.Errorf("%w: %q cannot be requested", apperr.ErrInvalidStatus, string(requested))
	}

	switch {
	case requested == models.BookingCancel:
		return models.BookingCancel, nil
	case current == models.BookingWaiting && requested == models.BookingCheckin:
		return models.BookingCheckin, nil
	case current == models.BookingCheckin && requested == models.BookingCheckout:
		return models.BookingCheckout, nil
	}

	return current, fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, current, requested)
}
