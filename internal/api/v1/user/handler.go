package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/api/v1/common"
	"github.com/nmang004/atlas-sub000/internal/middleware"
	"github.com/nmang004/atlas-sub000/internal/services"
	"github.com/nmang004/atlas-sub000/internal/utils"
)

// GetProfile godoc
// @Summary Get current user
// @Description Get the signed-in user's profile
// @Tags user
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response{data=user.UserResponse}
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /profile [get]
func GetProfile(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	u, err := services.FindUserByID(c.Request.Context(), identity.ID)
	if err != nil {
		common.RespondError(c, err, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("User information retrieved successfully", NewUserResponse(u)))
}

// UpdateProfile godoc
// @Summary Update current user
// @Description Change the signed-in user's display name. A blank name clears it.
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param body body UpdateProfileRequest true "Profile"
// @Success 200 {object} utils.Response{data=user.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /profile [patch]
func UpdateProfile(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req UpdateProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	u, err := services.UpdateProfile(c.Request.Context(), identity.ID, req.DisplayName)
	if err != nil {
		common.RespondError(c, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Profile updated successfully", NewUserResponse(*u)))
}

// GetSettings godoc
// @Summary Get preferences
// @Tags user
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=models.UserPreferences}
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /settings [get]
func GetSettings(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	prefs, err := services.GetPreferences(c.Request.Context(), identity.ID)
	if err != nil {
		common.RespondError(c, err, "Failed to load settings")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Settings retrieved successfully", prefs))
}

// UpdateSettings godoc
// @Summary Update preferences
// @Description Change only the submitted settings.
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param body body services.PreferencesPatch true "Settings"
// @Success 200 {object} utils.Response{data=models.UserPreferences}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /settings [patch]
func UpdateSettings(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var patch services.PreferencesPatch
	if !utils.BindAndValidate(c, &patch) {
		return
	}

	prefs, err := services.UpdatePreferences(c.Request.Context(), identity.ID, patch)
	if err != nil {
		common.RespondError(c, err, "Failed to update settings")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Settings updated successfully", prefs))
}
