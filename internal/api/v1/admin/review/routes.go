package review

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the review endpoints on an admin-only group.
func RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/review-queue", ReviewQueue)
	router.GET("/stats", Stats)
	router.POST("/prompts/:id/unflag", UnflagPrompt)
	router.POST("/prompts/:id/review", MarkReviewed)
}
