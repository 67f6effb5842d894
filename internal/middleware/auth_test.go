package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nmang004/atlas-sub000/internal/database"
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/internal/services"
	"github.com/nmang004/atlas-sub000/internal/utils"
	"github.com/nmang004/atlas-sub000/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "test_secret"

func setupTestDB(t *testing.T) {
	t.Helper()
	logger.Log = zap.NewNop()

	dsn := database.SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
}

func setupMockRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr
}

func generateTestToken(userID uint, expired bool) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    models.RoleAdmin,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	if expired {
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tString, _ := token.SignedString([]byte(testSecret))
	return tString
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) {
		identity, _ := CurrentIdentity(c)
		c.JSON(http.StatusOK, utils.NewSuccessResponse("ok", identity))
	}
	r.GET("/user", RequireAuth(), ok)
	r.GET("/admin", RequireAdmin(), ok)
	r.GET("/optional", OptionalAuth(), ok)
	return r
}

func TestAuthMiddlewares(t *testing.T) {
	setupTestDB(t)
	mr := setupMockRedis(t)
	utils.ConfigureTokens(testSecret, time.Hour)

	admin := models.User{Email: "admin@example.com", Password: "x", Role: models.RoleAdmin}
	member := models.User{Email: "member@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, database.DB.Create(&admin).Error)
	require.NoError(t, database.DB.Create(&member).Error)

	adminToken := generateTestToken(admin.ID, false)
	// The claim says admin; the stored role decides.
	memberToken := generateTestToken(member.ID, false)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantReason string
	}{
		{"admin ok", "/admin", adminToken, http.StatusOK, ""},
		{"member forbidden on admin", "/admin", memberToken, http.StatusForbidden, utils.ReasonForbidden},
		{"anonymous on admin", "/admin", "", http.StatusUnauthorized, utils.ReasonUnauthenticated},
		{"expired token", "/user", generateTestToken(member.ID, true), http.StatusUnauthorized, utils.ReasonUnauthenticated},
		{"garbage token", "/user", "abc", http.StatusUnauthorized, utils.ReasonUnauthenticated},
		{"unknown user", "/user", generateTestToken(9999, false), http.StatusUnauthorized, utils.ReasonUnauthenticated},
		{"member ok", "/user", memberToken, http.StatusOK, ""},
		{"optional anonymous", "/optional", "", http.StatusOK, ""},
		{"optional bad token", "/optional", "abc", http.StatusOK, ""},
		{"optional member", "/optional", memberToken, http.StatusOK, ""},
	}

	r := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp utils.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantReason, resp.Reason)
		})
	}

	t.Run("optional identity attached", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/optional", nil)
		req.Header.Set("Authorization", "Bearer "+memberToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var resp struct {
			Data *services.Identity `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Data)
		assert.Equal(t, member.ID, resp.Data.ID)
		assert.Equal(t, models.RoleUser, resp.Data.Role)
	})

	t.Run("revoked token", func(t *testing.T) {
		require.NoError(t, mr.Set("denylist:"+memberToken, "1"))
		req, _ := http.NewRequest(http.MethodGet, "/user", nil)
		req.Header.Set("Authorization", "Bearer "+memberToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthMiddlewareDenylistFailure(t *testing.T) {
	setupTestDB(t)
	mr := setupMockRedis(t)
	utils.ConfigureTokens(testSecret, time.Hour)
	mr.Close()

	req, _ := http.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(1, false))
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
