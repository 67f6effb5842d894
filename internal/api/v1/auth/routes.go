package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/middleware"
)

func RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	auth.POST("/register", Register)
	auth.POST("/login", Login)
	auth.POST("/logout", middleware.RequireAuth(), Logout)
}
