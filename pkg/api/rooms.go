package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/booking"
	"hotel_management/pkg/models"
)

type roomTypeRequest struct {
	Name string `json:"name" binding:"required"`
}

type createRoomRequest struct {
	Name        string `json:"name" binding:"required"`
	MaxCapacity int    `json:"maxCapacity" binding:"required,min=1"`
	Floor       int    `json:"floor" binding:"min=0"`
	RoomNumber  string `json:"roomNumber" binding:"required"`
	Price       int64  `json:"price" binding:"required,min=1"`
	Description string `json:"description"`
	RoomTypeID  uint   `json:"roomtypeId" binding:"required"`
}

// Availability is derived from bookings and cannot be written here.
type updateRoomRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1"`
	MaxCapacity *int    `json:"maxCapacity" binding:"omitempty,min=1"`
	Floor       *int    `json:"floor" binding:"omitempty,min=0"`
	RoomNumber  *string `json:"roomNumber" binding:"omitempty,min=1"`
	Price       *int64  `json:"price" binding:"omitempty,min=1"`
	Description *string `json:"description"`
	RoomTypeID  *uint   `json:"roomtypeId"`
}

func (h *Handler) createRoomType(c *gin.Context) {
	var req roomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	roomType := models.RoomType{Name: req.Name}
	if err := h.db.WithContext(c.Request.Context()).Create(&roomType).Error; err != nil {
		respondError(c, apperr.FromDB(err, "room type", req.Name))
		return
	}
	respond(c, http.StatusCreated, "Room type created successfully", roomType)
}

func (h *Handler) listRoomTypes(c *gin.Context) {
	var roomTypes []models.RoomType
	if err := h.db.WithContext(c.Request.Context()).Order("id ASC").Find(&roomTypes).Error; err != nil {
		respondError(c, apperr.FromDB(err, "room type", "list"))
		return
	}
	respond(c, http.StatusOK, "Room types fetched successfully", roomTypes)
}

func (h *Handler) getRoomType(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var roomType models.RoomType
	if err := h.db.WithContext(c.Request.Context()).First(&roomType, id).Error; err != nil {
		respondError(c, apperr.FromDB(err, "room type", id))
		return
	}
	respond(c, http.StatusOK, "Room type fetched successfully", roomType)
}

func (h *Handler) updateRoomType(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req roomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	var roomType models.RoomType
	if err := h.db.WithContext(ctx).First(&roomType, id).Error; err != nil {
		respondError(c, apperr.FromDB(err, "room type", id))
		return
	}
	if err := h.db.WithContext(ctx).Model(&roomType).Update("name", req.Name).Error; err != nil {
		respondError(c, apperr.FromDB(err, "room type", id))
		return
	}
	roomType.Name = req.Name
	respond(c, http.StatusOK, "Room type updated successfully", roomType)
}

// queryRooms lists bookable rooms, by date range when startdate and enddate are given.
func (h *Handler) queryRooms(c *gin.Context) {
	start, err := parseOptionalDate("startdate", c.Query("startdate"))
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := parseOptionalDate("enddate", c.Query("enddate"))
	if err != nil {
		respondError(c, err)
		return
	}

	q := booking.RoomQuery{Start: start, End: end, Page: pageFromQuery(c, 10)}
	if raw := c.Query("roomtype"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, apperr.Validation("roomtype must be a positive integer"))
			return
		}
		roomTypeID := uint(id)
		q.RoomTypeID = &roomTypeID
	}

	rooms, total, err := h.bookings.QueryAvailableRooms(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "Rooms fetched successfully", rooms, newMeta(total, q.Page))
}

func (h *Handler) getRoom(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var room models.Room
	if err := h.db.WithContext(c.Request.Context()).Preload("RoomType").First(&room, id).Error; err != nil {
		respondError(c, apperr.FromDB(err, "room", id))
		return
	}
	respond(c, http.StatusOK, "Room fetched successfully", room)
}

func (h *Handler) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	var roomType models.RoomType
	if err := h.db.WithContext(ctx).First(&roomType, req.RoomTypeID).Error; err != nil {
		respondError(c, apperr.FromDB(err, "room type", req.RoomTypeID))
		return
	}

	room := models.Room{
		Name:         req.Name,
		MaxCapacity:  req.MaxCapacity,
		Floor:        req.Floor,
		RoomNumber:   req.RoomNumber,
		Price:        req.Price,
		Description:  req.Description,
		Availability: true,
		RoomTypeID:   req.RoomTypeID,
	}
	if err := h.db.WithContext(ctx).Omit(clause.Associations).Create(&room).Error; err != nil {
		respondError(c, apperr.FromDB(err, "room", req.RoomNumber))
		return
	}
	room.RoomType = &roomType
	respond(c, http.StatusCreated, "Room created successfully", room)
}

func (h *Handler) updateRoom(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	changes := map[string]interface{}{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.MaxCapacity != nil {
		changes["max_capacity"] = *req.MaxCapacity
	}
	if req.Floor != nil {
		changes["floor"] = *req.Floor
	}
	if req.RoomNumber != nil {
		changes["room_number"] = *req.RoomNumber
	}
	if req.Price != nil {
		changes["price"] = *req.Price
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.RoomTypeID != nil {
		var roomType models.RoomType
		if err := h.db.WithContext(ctx).First(&roomType, *req.RoomTypeID).Error; err != nil {
			respondError(c, apperr.FromDB(err, "room type", *req.RoomTypeID))
			return
		}
		changes["room_type_id"] = *req.RoomTypeID
	}

	var room models.Room
	if err := h.db.WithContext(ctx).First(&room, id).Error; err != nil {
		respondError(c, apperr.FromDB(err, "room", id))
		return
	}
	if len(changes) > 0 {
		if err := h.db.WithContext(ctx).Model(&room).Omit(clause.Associations).Updates(changes).Error; err != nil {
			respondError(c, apperr.FromDB(err, "room", id))
			return
		}
	}
	if err := h.db.WithContext(ctx).Preload("RoomType").First(&room, id).Error; err != nil {
		respondError(c, apperr.FromDB(err, "room", id))
		return
	}
	respond(c, http.StatusOK, "Room updated successfully", room)
}
