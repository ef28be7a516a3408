package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/booking"
	"hotel_management/pkg/models"
)

type createBookingRequest struct {
	ID           string  `json:"id"`
	GuestID      string  `json:"guestId" binding:"required"`
	RoomID       uint    `json:"roomId" binding:"required"`
	CheckInDate  string  `json:"checkInDate" binding:"required"`
	CheckOutDate string  `json:"checkOutDate" binding:"required"`
	BookingDate  *string `json:"bookingDate"`
	TotalGuest   int     `json:"totalGuest" binding:"required,min=1"`
	TotalDay     int     `json:"totalDay" binding:"required,min=1"`
	Status       string  `json:"status"`
}

type updateBookingRequest struct {
	GuestID      *string `json:"guestId" binding:"omitempty,min=1"`
	RoomID       *uint   `json:"roomId" binding:"omitempty,min=1"`
	CheckInDate  *string `json:"checkInDate"`
	CheckOutDate *string `json:"checkOutDate"`
	TotalGuest   *int    `json:"totalGuest" binding:"omitempty,min=1"`
	TotalDay     *int    `json:"totalDay" binding:"omitempty,min=1"`
}

type checkStateRequest struct {
	Status string `json:"status" binding:"required,bookingstate"`
}

func (h *Handler) createBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	checkIn, err := parseDate("checkInDate", req.CheckInDate)
	if err != nil {
		respondError(c, err)
		return
	}
	checkOut, err := parseDate("checkOutDate", req.CheckOutDate)
	if err != nil {
		respondError(c, err)
		return
	}
	var bookingDate *time.Time
	if req.BookingDate != nil {
		if bookingDate, err = parseOptionalDate("bookingDate", *req.BookingDate); err != nil {
			respondError(c, err)
			return
		}
	}

	b, err := h.bookings.Create(c.Request.Context(), booking.CreateInput{
		ID:           req.ID,
		GuestID:      req.GuestID,
		RoomID:       req.RoomID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		BookingDate:  bookingDate,
		TotalGuest:   req.TotalGuest,
		TotalDay:     req.TotalDay,
		Status:       req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Booking created successfully", b)
}

func (h *Handler) listBookings(c *gin.Context) {
	page := pageFromQuery(c, 10)
	bookings, total, err := h.bookings.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "Bookings fetched successfully", bookings, newMeta(total, page))
}

func (h *Handler) listAwaitingCheckIn(c *gin.Context) {
	bookings, err := h.bookings.ListAwaitingCheckIn(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Bookings awaiting check-in fetched successfully", bookings)
}

func (h *Handler) getBooking(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Booking fetched successfully", b)
}

func (h *Handler) updateBooking(c *gin.Context) {
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	in := booking.UpdateInput{
		GuestID:    req.GuestID,
		RoomID:     req.RoomID,
		TotalGuest: req.TotalGuest,
		TotalDay:   req.TotalDay,
	}
	var err error
	if req.CheckInDate != nil {
		if in.CheckInDate, err = parseOptionalDate("checkInDate", *req.CheckInDate); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.CheckOutDate != nil {
		if in.CheckOutDate, err = parseOptionalDate("checkOutDate", *req.CheckOutDate); err != nil {
			respondError(c, err)
			return
		}
	}

	b, err := h.bookings.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Booking updated successfully", b)
}

func (h *Handler) transitionCheckState(c *gin.Context) {
	var req checkStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	requested, err := models.ParseBookingStatus(req.Status)
	if err != nil {
		respondError(c, apperr.Validation("%v", err))
		return
	}

	b, err := h.bookings.TransitionCheckState(c.Request.Context(), c.Param("id"), requested)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Booking status updated successfully", b)
}

func (h *Handler) bookingHistory(c *gin.Context) {
	events, err := h.bookings.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Booking history fetched successfully", events)
}
