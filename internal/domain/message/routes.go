package message

import "github.com/gin-gonic/gin"

// RegisterRoutes nests the thread endpoints under their request.
func RegisterRoutes(protected *gin.RouterGroup, handler *Handler) {
	protected.POST("/requests/:id/messages", handler.Send)
	protected.GET("/requests/:id/messages", handler.List)
}
