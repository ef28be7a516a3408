package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hotel_management/pkg/apperr"
	"hotel_management/pkg/auth"
	"hotel_management/pkg/models"
)

type createUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type sessionResponse struct {
	Token        string       `json:"token"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := models.User{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Name:     req.Name,
		Password: hash,
		Role:     req.Role,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondError(c, fmt.Errorf("%w: email already registered", apperr.ErrConflict))
			return
		}
		respondError(c, apperr.FromDB(err, "user", user.Email))
		return
	}

	respond(c, http.StatusCreated, "User created successfully", user)
}

func (h *Handler) listUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.WithContext(c.Request.Context()).Order("id ASC").Find(&users).Error; err != nil {
		respondError(c, apperr.FromDB(err, "user", "list"))
		return
	}
	respond(c, http.StatusOK, "Users fetched successfully", users)
}

func (h *Handler) getUser(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, id).Error; err != nil {
		respondError(c, apperr.FromDB(err, "user", id))
		return
	}
	respond(c, http.StatusOK, "User fetched successfully", user)
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	invalid := fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)

	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		First(&user, "email = ?", strings.ToLower(strings.TrimSpace(req.Email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, invalid)
		return
	}
	if err != nil {
		respondError(c, apperr.FromDB(err, "user", req.Email))
		return
	}
	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		respondError(c, invalid)
		return
	}

	session, err := h.startSession(c, &user)
	if err != nil {
		respondError(c, err)
		return
	}
	h.log.WithField("user_id", user.ID).Info("user signed in")
	respond(c, http.StatusOK, "Sign in successful", session)
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, err := h.tokens.Consume(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, fmt.Errorf("%w: user no longer exists", apperr.ErrUnauthorized))
			return
		}
		respondError(c, apperr.FromDB(err, "user", userID))
		return
	}

	session, err := h.startSession(c, &user)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Token refreshed", session)
}

func (h *Handler) signOut(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.tokens.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Signed out", nil)
}

func (h *Handler) startSession(c *gin.Context, user *models.User) (*sessionResponse, error) {
	token, expires, err := h.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	refresh := auth.NewRefreshToken()
	if err := h.tokens.Save(c.Request.Context(), refresh, user.ID, h.refreshTTL); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return &sessionResponse{Token: token, ExpiresAt: expires, RefreshToken: refresh, User: user}, nil
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	if claims == nil || (claims.UserID != id && claims.Role != "admin") {
		respondError(c, fmt.Errorf("%w: cannot change another user's avatar", apperr.ErrUnauthorized))
		return
	}
	if h.avatars == nil {
		respondError(c, apperr.Validation("avatar uploads are not configured"))
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		respondError(c, apperr.Validation("image file is required"))
		return
	}

	ctx := c.Request.Context()
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, id).Error; err != nil {
		respondError(c, apperr.FromDB(err, "user", id))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, apperr.Validation("cannot read image file"))
		return
	}
	defer file.Close()

	asset, err := h.avatars.Upload(ctx, file, fmt.Sprintf("user_%d_%d", id, time.Now().UnixNano()))
	if err != nil {
		respondError(c, err)
		return
	}

	previous := user.ImageID
	err = h.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"image":    asset.URL,
		"image_id": asset.PublicID,
	}).Error
	if err != nil {
		respondError(c, apperr.FromDB(err, "user", id))
		return
	}

	if previous != nil && *previous != asset.PublicID {
		if err := h.avatars.Destroy(ctx, *previous); err != nil {
			h.log.WithError(err).WithField("public_id", *previous).Warn("failed to remove previous avatar")
		}
	}

	user.Image, user.ImageID = &asset.URL, &asset.PublicID
	respond(c, http.StatusOK, "Avatar updated", user)
}
