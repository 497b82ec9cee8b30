package auth

import (
	"github.com/Satyam0004/leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	auth := r.Group("/auth")
	{
		auth.POST("/register/student", handler.RegisterStudent)
		auth.POST("/register/coordinator", handler.RegisterCoordinator)
		auth.POST("/login", handler.Login)
		auth.GET("/me", middleware.AuthMiddleware(), handler.GetMe)
	}
}
