package category

import (
	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/middleware"
)

func RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/categories", ListCategories)
	router.POST("/categories", middleware.RequireAdmin(), CreateCategory)
}
