package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/models"
)

type createGuestRequest struct {
	ID          string `json:"id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	DateOfBirth string `json:"dateOfBirth" binding:"required"`
}

type updateGuestRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1"`
	Address     *string `json:"address" binding:"omitempty,min=1"`
	Email       *string `json:"email" binding:"omitempty,email"`
	DateOfBirth *string `json:"dateOfBirth"`
}

func (h *Handler) createGuest(c *gin.Context) {
	var req createGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	dob, err := parseDate("dateOfBirth", req.DateOfBirth)
	if err != nil {
		respondError(c, err)
		return
	}

	guest := models.Guest{
		ID:          strings.TrimSpace(req.ID),
		Name:        req.Name,
		Address:     req.Address,
		Email:       req.Email,
		DateOfBirth: dob,
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Guest{}).Where("id = ?", guest.ID).Count(&existing).Error; err != nil {
			return apperr.FromDB(err, "guest", guest.ID)
		}
		if existing > 0 {
			return fmt.Errorf("%w: guest %s already exists", apperr.ErrConflict, guest.ID)
		}
		return apperr.FromDB(tx.Create(&guest).Error, "guest", guest.ID)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Guest created successfully", guest)
}

// listGuests searches by name fragment or exact identity number.
func (h *Handler) listGuests(c *gin.Context) {
	page := pageFromQuery(c, 5)
	search := strings.TrimSpace(c.Query("search"))

	query := func() *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(&models.Guest{})
		if search != "" {
			q = q.Where("LOWER(name) LIKE ? OR id = ?", "%"+strings.ToLower(search)+"%", search)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		respondError(c, apperr.FromDB(err, "guest", "list"))
		return
	}

	var guests []models.Guest
	err := query().Order("name ASC").Offset(page.Offset()).Limit(page.Limit).Find(&guests).Error
	if err != nil {
		respondError(c, apperr.FromDB(err, "guest", "list"))
		return
	}

	respondPage(c, "Guests fetched successfully", guests, newMeta(total, page))
}

func (h *Handler) listAllGuests(c *gin.Context) {
	var guests []models.Guest
	if err := h.db.WithContext(c.Request.Context()).Order("name ASC").Find(&guests).Error; err != nil {
		respondError(c, apperr.FromDB(err, "guest", "all"))
		return
	}
	respond(c, http.StatusOK, "Guests fetched successfully", guests)
}

func (h *Handler) getGuest(c *gin.Context) {
	id := c.Param("id")
	var guest models.Guest
	if err := h.db.WithContext(c.Request.Context()).First(&guest, "id = ?", id).Error; err != nil {
		respondError(c, apperr.FromDB(err, "guest", id))
		return
	}
	respond(c, http.StatusOK, "Guest fetched successfully", guest)
}

func (h *Handler) updateGuest(c *gin.Context) {
	id := c.Param("id")
	var req updateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Address != nil {
		changes["address"] = *req.Address
	}
	if req.Email != nil {
		changes["email"] = *req.Email
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate("dateOfBirth", *req.DateOfBirth)
		if err != nil {
			respondError(c, err)
			return
		}
		changes["date_of_birth"] = dob
	}

	ctx := c.Request.Context()
	var guest models.Guest
	if err := h.db.WithContext(ctx).First(&guest, "id = ?", id).Error; err != nil {
		respondError(c, apperr.FromDB(err, "guest", id))
		return
	}
	if len(changes) > 0 {
		if err := h.db.WithContext(ctx).Model(&guest).Updates(changes).Error; err != nil {
			respondError(c, apperr.FromDB(err, "guest", id))
			return
		}
	}
	if err := h.db.WithContext(ctx).First(&guest, "id = ?", id).Error; err != nil {
		respondError(c, apperr.FromDB(err, "guest", id))
		return
	}

	respond(c, http.StatusOK, "Guest updated successfully", guest)
}
