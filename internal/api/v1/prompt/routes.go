package prompt

import (
	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/middleware"
)

func RegisterRoutes(router *gin.RouterGroup) {
	prompts := router.Group("/prompts")
	prompts.GET("", ListPrompts)
	prompts.GET("/:id", GetPrompt)
	prompts.POST("/:id/render", RenderPrompt)
	prompts.GET("/:id/vote", middleware.OptionalAuth(), GetVote)
	prompts.POST("/:id/vote", middleware.RequireAuth(), CastVote)

	prompts.POST("", middleware.RequireAdmin(), CreatePrompt)
	prompts.PUT("/:id", middleware.RequireAdmin(), UpdatePrompt)
	prompts.DELETE("/:id", middleware.RequireAdmin(), DeletePrompt)

	router.POST("/template/extract", middleware.RequireAuth(), ExtractVariables)
}
