package notification

import "github.com/gin-gonic/gin"

// RegisterRoutes registers all notification-related routes
func RegisterRoutes(protected *gin.RouterGroup, handler *Handler) {
	notifGroup := protected.Group("/notifications")
	{
		notifGroup.GET("", handler.List)
		notifGroup.GET("/unread-count", handler.UnreadCount)
		notifGroup.PATCH("/:id/read", handler.MarkRead)
		notifGroup.POST("/read-all", handler.MarkAllRead)
		notifGroup.DELETE("/:id", handler.Delete)
	}
}
