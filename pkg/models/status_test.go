package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBookingStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected BookingStatus
		wantErr  bool
	}{
		{input: "waiting", expected: BookingWaiting},
		{input: "Waiting", expected: BookingWaiting},
		{input: " CHECKIN ", expected: BookingCheckin},
		{input: "checkout", expected: BookingCheckout},
		{input: "cancel", expected: BookingCancel},
		{input: "", expected: BookingUnset},
		{input: "reserved", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			status, err := ParseBookingStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestBookingStatusHolding(t *testing.T) {
	assert.True(t, BookingUnset.Holding())
	assert.True(t, BookingWaiting.Holding())
	assert.True(t, BookingCheckin.Holding())
	assert.False(t, BookingCheckout.Holding())
	assert.False(t, BookingCancel.Holding())
	assert.Equal(t, []BookingStatus{BookingCheckout, BookingCancel}, ReleasedStatuses())
}

func TestParsePaymentStatus(t *testing.T) {
	status, err := ParsePaymentStatus("complete")
	assert.NoError(t, err)
	assert.Equal(t, PaymentComplete, status)
	assert.True(t, status.Terminal())

	status, err = ParsePaymentStatus("Waiting")
	assert.NoError(t, err)
	assert.False(t, status.Terminal())

	_, err = ParsePaymentStatus("refunded")
	assert.Error(t, err)
}
