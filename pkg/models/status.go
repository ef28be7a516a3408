package models

import (
	"fmt"
	"strings"
)

// BookingStatus is the lifecycle state of a Booking.
type BookingStatus string

const (
	BookingUnset    BookingStatus = ""
	BookingWaiting  BookingStatus = "waiting"
	BookingCheckin  BookingStatus = "checkin"
	BookingCheckout BookingStatus = "checkout"
	BookingCancel   BookingStatus = "cancel"
)

var bookingStatuses = []BookingStatus{
	BookingUnset,
	BookingWaiting,
	BookingCheckin,
	BookingCheckout,
	BookingCancel,
}

// ParseBookingStatus accepts any casing; legacy rows were written as "Waiting".
func ParseBookingStatus(s string) (BookingStatus, error) {
	normalized := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, status := range bookingStatuses {
		if status == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid booking status: %q", s)
}

// Holding reports whether a booking in this status still claims its room's dates.
func (s BookingStatus) Holding() bool {
	return s != BookingCancel && s != BookingCheckout
}

// ReleasedStatuses lists the statuses whose bookings no longer hold their room.
func ReleasedStatuses() []BookingStatus {
	var released []BookingStatus
	for _, status := range bookingStatuses {
		if !status.Holding() {
			released = append(released, status)
		}
	}
	return released
}

func (s BookingStatus) String() string {
	if s == BookingUnset {
		return "unset"
	}
	return string(s)
}

// PaymentStatus is the reconciliation state of a Payment.
type PaymentStatus string

const (
	PaymentWaiting  PaymentStatus = "Waiting"
	PaymentComplete PaymentStatus = "Complete"
	PaymentCancel   PaymentStatus = "Cancel"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	for _, status := range []PaymentStatus{PaymentWaiting, PaymentComplete, PaymentCancel} {
		if strings.EqualFold(string(status), strings.TrimSpace(s)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid payment status: %q", s)
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentComplete || s == PaymentCancel
}
