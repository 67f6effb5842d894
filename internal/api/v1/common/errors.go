package common

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/services"
	"github.com/nmang004/atlas-sub000/internal/utils"
	"github.com/nmang004/atlas-sub000/pkg/logger"
	"go.uber.org/zap"
)

// RespondError maps a service error onto the response envelope. Errors
// without a mapping are logged and reported as 500 with internalMessage.
func RespondError(c *gin.Context, err error, internalMessage string) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		utils.RespondValidation(c, verr.Details)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrPromptNotFound),
		errors.Is(err, services.ErrVariantNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrCategoryExists),
		errors.Is(err, services.ErrUserAlreadyExists),
		errors.Is(err, services.ErrOptimisticLock):
		status = http.StatusConflict
	case errors.Is(err, services.ErrRateLimited):
		status = http.StatusTooManyRequests
		c.Header("Retry-After", strconv.Itoa(voteRetryAfterSeconds()))
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logger.Log.Error(internalMessage, zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(status, utils.NewErrorResponse(status, internalMessage))
		return
	}
	c.JSON(status, utils.NewErrorResponse(status, err.Error()))
}

func voteRetryAfterSeconds() int {
	window := services.DefaultVoteRateWindow
	if l, ok := services.VoteLimiter.(*services.RedisVoteRateLimiter); ok {
		window = l.Window
	}
	if s := int(window.Seconds()); s > 0 {
		return s
	}
	return 1
}

// ParseID reads a positive numeric path parameter, responding 400 when it
// is malformed.
func ParseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.RespondValidation(c, []utils.ValidationErrorDetail{{
			Field:    name,
			Message:  "Field '" + name + "' must be a positive integer",
			Expected: "positive integer",
			Received: raw,
		}})
		return 0, false
	}
	return uint(id), true
}

// ParsePage reads page and limit query parameters.
func ParsePage(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		utils.RespondValidation(c, []utils.ValidationErrorDetail{{
			Field: "page", Message: "Invalid page number", Expected: ">= 1", Received: c.Query("page"),
		}})
		return 0, 0, false
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageSize)))
	if err != nil || limit < 1 || limit > services.MaxPageSize {
		utils.RespondValidation(c, []utils.ValidationErrorDetail{{
			Field: "limit", Message: "Invalid limit number", Expected: "1-" + strconv.Itoa(services.MaxPageSize), Received: c.Query("limit"),
		}})
		return 0, 0, false
	}
	return page, limit, true
}
