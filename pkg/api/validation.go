package api

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"hotel_management/pkg/booking"
	"hotel_management/pkg/models"
)

var registerOnce sync.Once

// RegisterValidators adds the domain tags to gin's validator engine.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("bookingstate", func(fl validator.FieldLevel) bool {
			status, err := models.ParseBookingStatus(fl.Field().String())
			return err == nil && booking.Requestable(status)
		})
		_ = v.RegisterValidation("paymentstate", func(fl validator.FieldLevel) bool {
			status, err := models.ParsePaymentStatus(fl.Field().String())
			return err == nil && status.Terminal()
		})
	})
}
