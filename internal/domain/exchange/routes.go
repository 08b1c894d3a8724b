package exchange

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the request endpoints. Everything here requires
// authentication; requests are only ever visible to their two participants.
func RegisterRoutes(protected *gin.RouterGroup, handler *Handler) {
	requests := protected.Group("/requests")
	{
		requests.POST("", handler.Create)
		requests.GET("/mine", handler.ListMine)
		requests.GET("/:id", handler.Get)
		requests.POST("/:id/respond", handler.Respond)
	}
}
