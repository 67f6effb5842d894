package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/api/v1/common"
	"github.com/nmang004/atlas-sub000/internal/api/v1/user"
	"github.com/nmang004/atlas-sub000/internal/services"
	"github.com/nmang004/atlas-sub000/internal/utils"
)

type RegisterInput struct {
	Email       string  `json:"email" binding:"required,email,max=255"`
	Password    string  `json:"password" binding:"required,min=8,max=72"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=100"`
}

// Register godoc
// @Summary Register a new user
// @Description Register a new user with an email and password. The first account becomes an admin.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   RegisterInput  true  "Register Input"
// @Success 201 {object} utils.Response{data=user.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /auth/register [post]
func Register(c *gin.Context) {
	var input RegisterInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	u, err := services.RegisterUser(c.Request.Context(), input.Email, input.Password, input.DisplayName)
	if err != nil {
		common.RespondError(c, err, "Failed to register user due to an internal error")
		return
	}

	token, err := utils.GenerateToken(u.ID, u.Role)
	if err != nil {
		common.RespondError(c, err, "Could not generate token")
		return
	}

	resp := user.NewUserResponse(*u)
	resp.Token = token
	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "User registered successfully", resp))
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Log in a user
// @Description Log in a user with an email and password
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   LoginInput  true  "Login Input"
// @Success 200 {object} utils.Response{data=user.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /auth/login [post]
func Login(c *gin.Context) {
	var input LoginInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	token, u, err := services.LoginUser(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		common.RespondError(c, err, "Failed to log in")
		return
	}

	resp := user.NewUserResponse(*u)
	resp.Token = token
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged in successfully", resp))
}

// Logout godoc
// @Summary Log out a user
// @Description Invalidate the user's current token
// @Tags auth
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /auth/logout [post]
func Logout(c *gin.Context) {
	tokenString, err := utils.ExtractToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
		return
	}

	if err := services.LogoutToken(c.Request.Context(), tokenString); err != nil {
		common.RespondError(c, err, "Failed to denylist token")
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged out successfully", nil))
}
