package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hotel_management/pkg/auth"
	"hotel_management/pkg/booking"
	"hotel_management/pkg/database"
	"hotel_management/pkg/logger"
	"hotel_management/pkg/media"
	"hotel_management/pkg/payment"
)

type Deps struct {
	DB         *gorm.DB
	Bookings   *booking.Manager
	Payments   *payment.Reconciler
	Issuer     *auth.Issuer
	Tokens     auth.TokenStore
	Avatars    media.Uploader
	ServerKey  string
	RefreshTTL time.Duration
	Log        logrus.FieldLogger
}

type Handler struct {
	db         *gorm.DB
	bookings   *booking.Manager
	payments   *payment.Reconciler
	issuer     *auth.Issuer
	tokens     auth.TokenStore
	avatars    media.Uploader
	serverKey  string
	refreshTTL time.Duration
	log        logrus.FieldLogger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		db:         d.DB,
		bookings:   d.Bookings,
		payments:   d.Payments,
		issuer:     d.Issuer,
		tokens:     d.Tokens,
		avatars:    d.Avatars,
		serverKey:  d.ServerKey,
		refreshTTL: d.RefreshTTL,
		log:        d.Log,
	}
}

func NewRouter(h *Handler) *gin.Engine {
	RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery(), logger.Middleware(h.log))

	authed := auth.Authenticate(h.issuer)
	api := router.Group("/api")

	users := api.Group("/auth")
	users.POST("", h.createUser)
	users.POST("/signin", h.signIn)
	users.POST("/refresh", h.refresh)
	users.POST("/signout", h.signOut)
	users.GET("", authed, h.listUsers)
	users.GET("/:id", authed, h.getUser)
	users.PUT("/:id/avatar", authed, h.uploadAvatar)

	roomTypes := api.Group("/roomtype")
	roomTypes.GET("", h.listRoomTypes)
	roomTypes.GET("/:id", h.getRoomType)
	roomTypes.POST("", authed, h.createRoomType)
	roomTypes.PUT("/:id", authed, h.updateRoomType)

	rooms := api.Group("/room")
	rooms.GET("", h.queryRooms)
	rooms.GET("/:id", h.getRoom)
	rooms.POST("", authed, h.createRoom)
	rooms.PUT("/:id", authed, h.updateRoom)

	guests := api.Group("/guest")
	guests.GET("", h.listGuests)
	guests.GET("/all", h.listAllGuests)
	guests.GET("/:id", authed, h.getGuest)
	guests.POST("", authed, h.createGuest)
	guests.PUT("/:id", authed, h.updateGuest)

	bookings := api.Group("/booking")
	bookings.GET("/checkin", h.listAwaitingCheckIn)
	bookings.PUT("/checkin/:id", authed, h.transitionCheckState)
	bookings.GET("", authed, h.listBookings)
	bookings.GET("/:id", authed, h.getBooking)
	bookings.GET("/:id/history", authed, h.bookingHistory)
	bookings.POST("", authed, h.createBooking)
	bookings.PUT("/:id", authed, h.updateBooking)

	payments := api.Group("/payment")
	payments.POST("/booking", h.payBooking)
	payments.POST("/notification", h.paymentNotification)
	payments.GET("/check/:id", h.checkPayment)
	payments.GET("/:id", h.getPayment)
	payments.PUT("/:id/confirm", authed, h.confirmPayment)

	router.GET("/manage/health", h.healthCheck)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "route not found", "data": nil})
	})

	return router
}

func (h *Handler) healthCheck(c *gin.Context) {
	if err := database.Ping(h.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": gin.H{"database": err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
