package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/utils"
	"github.com/nmang004/atlas-sub000/pkg/logger"
	"go.uber.org/zap"
)

// RequireAdmin validates that the caller is signed in (401 otherwise) and
// that their stored role is admin (403 otherwise).
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authenticate(c)
		if !ok {
			return
		}

		if !identity.IsAdmin() {
			logger.Log.Warn("Unauthorized admin access attempt",
				zap.Uint("user_id", identity.ID), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Forbidden: Admins only"))
			return
		}

		c.Next()
	}
}
