package user

import (
	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/middleware"
)

func RegisterRoutes(router *gin.RouterGroup) {
	authorized := router.Group("")
	authorized.Use(middleware.RequireAuth())
	authorized.GET("/profile", GetProfile)
	authorized.PATCH("/profile", UpdateProfile)
	authorized.GET("/settings", GetSettings)
	authorized.PATCH("/settings", UpdateSettings)
}
