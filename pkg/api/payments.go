package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/midtrans"
	"hotel_management/pkg/models"
	"hotel_management/pkg/payment"
)

type payBookingRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
}

type confirmPaymentRequest struct {
	Status string `json:"status" binding:"required,paymentstate"`
}

func (h *Handler) payBooking(c *gin.Context) {
	var req payBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.payments.Initiate(c.Request.Context(), req.BookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Payment created successfully", p)
}

// checkPayment reissues the gateway token when it expired. id is the booking id.
func (h *Handler) checkPayment(c *gin.Context) {
	p, refreshed, err := h.payments.Refresh(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if refreshed {
		respond(c, http.StatusOK, "Updated Midtrans Token", p)
		return
	}
	respond(c, http.StatusOK, "Midtrans Token not expired yet", p)
}

func (h *Handler) getPayment(c *gin.Context) {
	p, err := h.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Payment fetched successfully", p)
}

func (h *Handler) confirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	reported, err := models.ParsePaymentStatus(req.Status)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", apperr.ErrInvalidStatus, err))
		return
	}

	p, changed, err := h.payments.Confirm(c.Request.Context(), c.Param("id"), reported)
	if err != nil {
		respondError(c, err)
		return
	}
	if !changed {
		respond(c, http.StatusOK, "Payment already confirmed", p)
		return
	}
	respond(c, http.StatusOK, "Payment confirmed successfully", p)
}

// paymentNotification receives gateway status callbacks.
func (h *Handler) paymentNotification(c *gin.Context) {
	var n midtrans.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		respondBindError(c, err)
		return
	}
	if !n.Verify(h.serverKey) {
		h.log.WithField("order_id", n.OrderID).Warn("rejected notification with bad signature")
		respondError(c, fmt.Errorf("%w: invalid signature", apperr.ErrUnauthorized))
		return
	}

	reported, final := payment.Reported(n.State())
	if !final {
		respond(c, http.StatusOK, "Notification received", nil)
		return
	}

	p, changed, err := h.payments.ConfirmByOrder(c.Request.Context(), n.OrderID, reported)
	if err != nil {
		// a conflicting terminal status is acknowledged so the gateway stops retrying
		if errors.Is(err, apperr.ErrInvalidTransition) {
			h.log.WithError(err).WithField("order_id", n.OrderID).Warn("ignored conflicting notification")
			respond(c, http.StatusOK, "Notification ignored", nil)
			return
		}
		respondError(c, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"order_id": n.OrderID,
		"status":   reported,
		"changed":  changed,
	}).Info("payment notification applied")
	respond(c, http.StatusOK, "Notification processed", p)
}
