package app

import (
	"database/sql"

	"github.com/Satyam0004/leave/internal/auth"
	"github.com/Satyam0004/leave/internal/leave"
	"github.com/Satyam0004/leave/internal/messaging/kafka"
	"github.com/Satyam0004/leave/internal/middleware"
	"github.com/Satyam0004/leave/internal/notification"
	"github.com/Satyam0004/leave/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(rate.Limit(10), 20))

	// --- Repositories ---
	userRepo := user.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	notificationRepo := notification.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	authService := auth.NewService(userRepo)
	leaveService := leave.NewService(db, leaveRepo, userRepo, outboxRepo, rdb)
	notificationService := notification.NewService(notificationRepo)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService)
	leaveHandler := leave.NewHandlerWithRedis(leaveService, rdb)
	notificationHandler := notification.NewHandler(notificationService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		leave.RegisterRoutes(api, leaveHandler, rdb)
		notification.RegisterRoutes(api, notificationHandler)
	}

	return nil
}
