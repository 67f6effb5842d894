package prompt

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/api/v1/common"
	"github.com/nmang004/atlas-sub000/internal/middleware"
	"github.com/nmang004/atlas-sub000/internal/services"
	"github.com/nmang004/atlas-sub000/internal/template"
	"github.com/nmang004/atlas-sub000/internal/utils"
)

// ListPrompts godoc
// @Summary List prompts
// @Description Get a paginated, filtered list of prompts with their lifecycle status
// @Tags prompts
// @Produce json
// @Param category_id query int false "Category ID"
// @Param tag query string false "Tag"
// @Param search query string false "Search in title and content"
// @Param status query string false "clean, stale, flagged or needs_attention"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} utils.Response{data=PromptListResponse}
// @Failure 400 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /prompts [get]
func ListPrompts(c *gin.Context) {
	page, limit, ok := common.ParsePage(c)
	if !ok {
		return
	}

	filter := services.PromptFilter{
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			utils.RespondValidation(c, []utils.ValidationErrorDetail{{
				Field: "category_id", Message: "Field 'category_id' must be a positive integer", Expected: "positive integer", Received: raw,
			}})
			return
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}

	prompts, total, err := services.ListPrompts(c.Request.Context(), filter)
	if err != nil {
		common.RespondError(c, err, "Failed to fetch prompts")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prompts retrieved successfully", PromptListResponse{
		Prompts: prompts,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}))
}

// GetPrompt godoc
// @Summary Get a prompt
// @Description Get a prompt with its variables, variants, examples and review checklist
// @Tags prompts
// @Produce json
// @Param id path int true "Prompt ID"
// @Success 200 {object} utils.Response{data=services.PromptDetail}
// @Failure 404 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /prompts/{id} [get]
func GetPrompt(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}

	detail, err := services.GetPromptDetail(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err, "Failed to fetch prompt")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prompt retrieved successfully", detail))
}

// CreatePrompt godoc
// @Summary Create a prompt
// @Description Create a prompt with its variables and variants. Admin only.
// @Tags prompts
// @Accept json
// @Produce json
// @Security Bearer
// @Param body body services.PromptInput true "Prompt"
// @Success 201 {object} utils.Response{data=models.Prompt}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /prompts [post]
func CreatePrompt(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var input services.PromptInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	prompt, err := services.CreatePrompt(c.Request.Context(), identity.ID, input)
	if err != nil {
		common.RespondError(c, err, "Failed to create prompt")
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Prompt created successfully", prompt))
}

// UpdatePrompt godoc
// @Summary Update a prompt
// @Description Replace a prompt's content. Submitted variables and variants replace the existing ones. Admin only.
// @Tags prompts
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Prompt ID"
// @Param body body services.PromptInput true "Prompt"
// @Success 200 {object} utils.Response{data=models.Prompt}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /prompts/{id} [put]
func UpdatePrompt(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}

	var input services.PromptInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	prompt, err := services.UpdatePrompt(c.Request.Context(), id, input)
	if err != nil {
		common.RespondError(c, err, "Failed to update prompt")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prompt updated successfully", prompt))
}

// DeletePrompt godoc
// @Summary Delete a prompt
// @Description Delete a prompt and all of its variables, variants, examples and votes. Admin only.
// @Tags prompts
// @Produce json
// @Security Bearer
// @Param id path int true "Prompt ID"
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /prompts/{id} [delete]
func DeletePrompt(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}

	if err := services.DeletePrompt(c.Request.Context(), id); err != nil {
		common.RespondError(c, err, "Failed to delete prompt")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prompt deleted successfully", nil))
}

// RenderPrompt godoc
// @Summary Render a prompt
// @Description Substitute variable values into a prompt or one of its variants
// @Tags prompts
// @Accept json
// @Produce json
// @Param id path int true "Prompt ID"
// @Param body body RenderRequest true "Variable values"
// @Success 200 {object} utils.Response{data=services.RenderResult}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /prompts/{id}/render [post]
func RenderPrompt(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}

	var req RenderRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := services.RenderPrompt(c.Request.Context(), id, req.VariantID, req.Variables, req.AllowMissing)
	if err != nil {
		common.RespondError(c, err, "Failed to render prompt")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Prompt rendered successfully", result))
}

// CastVote godoc
// @Summary Vote on a prompt
// @Description Record the caller's judgment of a prompt. A negative vote flags the prompt for review.
// @Tags votes
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Prompt ID"
// @Param body body VoteRequest true "Vote"
// @Success 200 {object} utils.Response{data=services.VoteResult}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 429 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /prompts/{id}/vote [post]
func CastVote(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}

	var req VoteRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := services.CastVote(c.Request.Context(), id, identity.ID, req.Outcome, req.Feedback)
	if err != nil {
		common.RespondError(c, err, "Failed to record vote")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Vote recorded successfully", result))
}

// GetVote godoc
// @Summary Get the caller's vote
// @Description Returns the caller's vote on a prompt, or null when there is none or the caller is anonymous
// @Tags votes
// @Produce json
// @Param id path int true "Prompt ID"
// @Success 200 {object} utils.Response{data=VoteResponse}
// @Failure 400 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /prompts/{id}/vote [get]
func GetVote(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}

	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, utils.NewSuccessResponse("No vote", VoteResponse{}))
		return
	}

	vote, err := services.GetVote(c.Request.Context(), id, identity.ID)
	if err != nil {
		common.RespondError(c, err, "Failed to fetch vote")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Vote retrieved successfully", VoteResponse{Vote: vote}))
}

// ExtractVariables godoc
// @Summary Extract template variables
// @Description List the distinct placeholder keys in content, in first-seen order
// @Tags prompts
// @Accept json
// @Produce json
// @Security Bearer
// @Param body body ExtractRequest true "Content"
// @Success 200 {object} utils.Response{data=ExtractResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /template/extract [post]
func ExtractVariables(c *gin.Context) {
	var req ExtractRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	keys := template.ExtractKeys(req.Content)
	if keys == nil {
		keys = []string{}
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Variables extracted successfully", ExtractResponse{Keys: keys}))
}
