package review

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/api/v1/common"
	"github.com/nmang004/atlas-sub000/internal/services"
	"github.com/nmang004/atlas-sub000/internal/utils"
)

type ReviewQueueResponse struct {
	Entries []services.ReviewEntry `json:"entries"`
	Total   int                    `json:"total"`
}

// ReviewQueue godoc
// @Summary Review queue
// @Description Flagged and stale prompts, flagged first then oldest verification first, with negative feedback. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=ReviewQueueResponse}
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/review-queue [get]
func ReviewQueue(c *gin.Context) {
	entries, err := services.BuildReviewQueue(c.Request.Context(), services.Now())
	if err != nil {
		common.RespondError(c, err, "Failed to build review queue")
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Review queue retrieved successfully", ReviewQueueResponse{
		Entries: entries,
		Total:   len(entries),
	}))
}

// Stats godoc
// @Summary Dashboard counters
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=services.DashboardStats}
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/stats [get]
func Stats(c *gin.Context) {
	stats, err := services.GetDashboardStats(c.Request.Context(), services.Now())
	if err != nil {
		common.RespondError(c, err, "Failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Stats retrieved successfully", stats))
}

// UnflagPrompt godoc
// @Summary Unflag a prompt
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path int true "Prompt ID"
// @Success 200 {object} utils.Response{data=models.Prompt}
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /admin/prompts/{id}/unflag [post]
func UnflagPrompt(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}
	prompt, err := services.UnflagPrompt(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err, "Failed to unflag prompt")
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prompt unflagged successfully", prompt))
}

// MarkReviewed godoc
// @Summary Mark a prompt reviewed
// @Description Resets the prompt's staleness clock. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path int true "Prompt ID"
// @Success 200 {object} utils.Response{data=models.Prompt}
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /admin/prompts/{id}/review [post]
func MarkReviewed(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}
	prompt, err := services.MarkReviewed(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err, "Failed to mark prompt reviewed")
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prompt marked reviewed", prompt))
}
