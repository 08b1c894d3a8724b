package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes wires the public auth endpoints and the protected profile
// endpoints. Refresh and logout ride on the httpOnly cookie, so they stay on
// the public group.
func RegisterRoutes(public, protected *gin.RouterGroup, handler *Handler) {
	authGroup := public.Group("/auth")
	{
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)
		authGroup.POST("/refresh", handler.Refresh)
		authGroup.POST("/logout", handler.Logout)
	}

	users := protected.Group("/users")
	{
		users.GET("/me", handler.GetMe)
		users.PUT("/me", handler.UpdateProfile)
	}
}
