package catalog

import "github.com/gin-gonic/gin"

// RegisterRoutes registers catalog routes. Browsing and reading are public;
// listing and editing require authentication.
func RegisterRoutes(public, protected *gin.RouterGroup, handler *Handler) {
	public.GET("/books", handler.Browse)
	public.GET("/books/:id", handler.Get)

	protected.POST("/books", handler.Create)
	protected.GET("/books/mine", handler.MyShelf)
	protected.PATCH("/books/:id", handler.Update)
}
