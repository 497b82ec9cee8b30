package notification

import (
	"github.com/Satyam0004/leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	notifications := r.Group("/notifications", middleware.AuthMiddleware())
	{
		notifications.GET("", handler.List)
		notifications.PUT("/:id/read", handler.MarkRead)
		notifications.DELETE("/clear-all", handler.ClearAll)
	}
}
