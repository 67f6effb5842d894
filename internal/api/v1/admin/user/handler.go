package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/api/v1/common"
	"github.com/nmang004/atlas-sub000/internal/middleware"
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/internal/services"
	"github.com/nmang004/atlas-sub000/internal/utils"
)

type UserListItem struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name"`
	Role        string    `json:"role"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UserListResponse struct {
	Users []UserListItem `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func toListItem(u models.User) UserListItem {
	return UserListItem{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Version:     u.Version,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ListUsers godoc
// @Summary List all users
// @Description Get a paginated list of users. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} utils.Response{data=UserListResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/users [get]
func ListUsers(c *gin.Context) {
	page, limit, ok := common.ParsePage(c)
	if !ok {
		return
	}

	users, total, err := services.FindUsers(c.Request.Context(), page, limit)
	if err != nil {
		common.RespondError(c, err, "Failed to fetch users")
		return
	}

	userItems := make([]UserListItem, 0, len(users))
	for _, u := range users {
		userItems = append(userItems, toListItem(u))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Users retrieved successfully", UserListResponse{
		Users: userItems,
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

// UpdateUserRequest represents the request body for updating a user.
// Version, when set, must match the stored version.
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name,omitempty" binding:"omitempty,max=100"`
	Role        *string `json:"role,omitempty" binding:"omitempty,oneof=admin user"`
	Version     int     `json:"version" binding:"min=0"`
}

// UpdateUser godoc
// @Summary Update a user
// @Description Change a user's role or display name. Admin only.
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Param body body UpdateUserRequest true "User details to update"
// @Success 200 {object} utils.Response{data=UserListItem}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /admin/users/{id} [patch]
func UpdateUser(c *gin.Context) {
	id, ok := common.ParseID(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updates := make(map[string]interface{})
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			updates["display_name"] = nil
		} else {
			updates["display_name"] = name
		}
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}

	if len(updates) == 0 {
		utils.RespondValidation(c, []utils.ValidationErrorDetail{{
			Field: "body", Message: "No fields to update", Expected: "display_name or role", Received: "none",
		}})
		return
	}

	var operator uint
	if identity, ok := middleware.CurrentIdentity(c); ok {
		operator = identity.ID
	}

	updatedUser, err := services.UpdateUser(c.Request.Context(), id, updates, req.Version, operator)
	if err != nil {
		common.RespondError(c, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("User updated successfully", toListItem(*updatedUser)))
}
