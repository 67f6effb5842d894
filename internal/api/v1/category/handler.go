package category

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/api/v1/common"
	"github.com/nmang004/atlas-sub000/internal/services"
	"github.com/nmang004/atlas-sub000/internal/utils"
)

type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// ListCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} utils.Response{data=[]models.Category}
// @Failure 500 {object} utils.Response
// @Router /categories [get]
func ListCategories(c *gin.Context) {
	categories, err := services.ListCategories(c.Request.Context())
	if err != nil {
		common.RespondError(c, err, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Categories retrieved successfully", categories))
}

// CreateCategory godoc
// @Summary Create a category
// @Description Admin only.
// @Tags categories
// @Accept json
// @Produce json
// @Security Bearer
// @Param body body CreateCategoryRequest true "Category"
// @Success 201 {object} utils.Response{data=models.Category}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /categories [post]
func CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	category, err := services.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		common.RespondError(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Category created successfully", category))
}
