package leave

import (
	"github.com/Satyam0004/leave/internal/middleware"
	"github.com/Satyam0004/leave/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	leaves := r.Group("/leaves", middleware.AuthMiddleware())
	{
		student := leaves.Group("", middleware.RoleMiddleware(user.RoleStudent))
		{
			student.POST("/apply", middleware.Idempotency(rdb), handler.Apply)
			student.GET("/my", handler.GetMyLeaves)
			student.GET("/my/stats", handler.GetMyStats)
		}

		coordinator := leaves.Group("", middleware.RoleMiddleware(user.RoleCoordinator))
		{
			coordinator.GET("/pending", handler.GetPendingForClass)
			coordinator.GET("/summary", handler.GetStudentSummary)
			coordinator.PUT("/:id/status", handler.UpdateStatus)
		}

		admin := leaves.Group("", middleware.RoleMiddleware(user.RoleAdmin))
		{
			admin.GET("/emergency-pending", handler.GetEmergencyPending)
			admin.PUT("/:id/emergency-approve", handler.AdminFinalize)
		}

		leaves.GET("", middleware.RoleMiddleware(user.RoleCoordinator, user.RoleAdmin), handler.GetAll)
	}
}
