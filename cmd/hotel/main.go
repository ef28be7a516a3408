package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hotel_management/pkg/api"
	"hotel_management/pkg/auth"
	"hotel_management/pkg/booking"
	"hotel_management/pkg/config"
	"hotel_management/pkg/database"
	"hotel_management/pkg/eventlog"
	"hotel_management/pkg/logger"
	"hotel_management/pkg/media"
	"hotel_management/pkg/midtrans"
	"hotel_management/pkg/models"
	"hotel_management/pkg/payment"
	"hotel_management/pkg/poller"
	"hotel_management/pkg/queue"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info("Starting hotel service...")

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	log.WithFields(logrus.Fields{
		"host": cfg.DBHost,
		"port": cfg.DBPort,
		"name": cfg.DBName,
	}).Info("connecting to database")
	db, err := database.Connect(cfg.DSN(), cfg.DBMaxRetries, log, models.All()...)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := database.Ping(db); err != nil {
		log.WithError(err).Fatal("database ping failed")
	}

	seedRoomTypes(db, log)

	ctx := context.Background()
	tokens := refreshTokenStore(ctx, cfg, log)
	events, closeEvents := eventStore(ctx, cfg, log)
	defer closeEvents()

	gateway := midtrans.NewClient(midtrans.Config{
		ServerKey:   cfg.MidtransServerKey,
		Production:  cfg.MidtransProduction,
		Timeout:     cfg.GatewayTimeout,
		MaxFailures: cfg.GatewayMaxFailures,
		Cooldown:    cfg.GatewayBreakerCooldown,
	}, log)

	bookings := booking.NewManager(db, events, log)
	payments := payment.NewReconciler(db, gateway, bookings, log)

	paymentPoller := poller.New(payments, gateway, queue.NewQueue(), log)
	if err := paymentPoller.Start(cfg.PaymentPollSchedule); err != nil {
		log.WithError(err).Fatal("invalid payment poll schedule")
	}
	defer paymentPoller.Stop()

	var avatars media.Uploader
	if cfg.CloudinaryURL != "" {
		cld, err := media.NewCloudinary(cfg.CloudinaryURL, "hotel/avatars")
		if err != nil {
			log.WithError(err).Warn("avatar uploads disabled")
		} else {
			avatars = cld
		}
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandler(api.Deps{
		DB:         db,
		Bookings:   bookings,
		Payments:   payments,
		Issuer:     auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Tokens:     tokens,
		Avatars:    avatars,
		ServerKey:  cfg.MidtransServerKey,
		RefreshTTL: cfg.RefreshTTL,
		Log:        log,
	}))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("hotel service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// refreshTokenStore falls back to process memory when REDIS_URL is unset or unreachable.
func refreshTokenStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) auth.TokenStore {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, refresh tokens kept in memory")
		return auth.NewMemoryStore()
	}
	client, err := auth.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, refresh tokens kept in memory")
		return auth.NewMemoryStore()
	}
	return auth.NewRedisStore(client)
}

func eventStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (eventlog.Recorder, func()) {
	if cfg.MongoURI == "" {
		log.Warn("MONGO_URI not set, booking history kept in memory")
		return eventlog.NewMemoryStore(), func() {}
	}
	client, err := eventlog.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Warn("mongo unavailable, booking history kept in memory")
		return eventlog.NewMemoryStore(), func() {}
	}

	store := eventlog.NewMongoStore(client.Database(cfg.MongoDB))
	if err := store.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Warn("failed to create booking history indexes")
	}
	return store, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}
}

func seedRoomTypes(db *gorm.DB, log logrus.FieldLogger) {
	for _, name := range []string{"Standard", "Deluxe", "Suite"} {
		var existing models.RoomType
		if err := db.Where("name = ?", name).First(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(&models.RoomType{Name: name}).Error; err != nil {
			log.WithError(err).WithField("room_type", name).Warn("failed to seed room type")
		}
	}
	log.Info("room types seeded")
}
