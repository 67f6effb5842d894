package user_test

import (
	"bytes"
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
	"github.com/google/uuid"
	"github.com/nmang004/atlas-sub000/internal/api/v1/user"
	"github.com/nmang004/atlas-sub000/internal/database"
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/internal/utils"
	"github.com/nmang004/atlas-sub000/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	logger.Log = zap.NewNop()

	dsn := database.SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
}

func setupTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	user.RegisterRoutes(r.Group("/api"))
	return r
}

func do(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProfile(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)
	utils.ConfigureTokens("test_secret", time.Hour)

	u := models.User{Email: "ada@example.com", Password: "x", Role: models.RoleUser, Version: 1}
	require.NoError(t, database.DB.Create(&u).Error)
	token, err := utils.GenerateToken(u.ID, u.Role)
	require.NoError(t, err)
	r := newRouter()

	w := do(r, http.MethodGet, "/api/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/profile", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data user.UserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ada@example.com", resp.Data.Email)
	assert.Nil(t, resp.Data.DisplayName)
	assert.Empty(t, resp.Data.Token)

	w = do(r, http.MethodPatch, "/api/profile", token, `{"display_name": "Ada Lovelace"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.DisplayName)
	assert.Equal(t, "Ada Lovelace", *resp.Data.DisplayName)

	w = do(r, http.MethodPatch, "/api/profile", token, `{"role": "admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettings(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)
	utils.ConfigureTokens("test_secret", time.Hour)

	u := models.User{Email: "ada@example.com", Password: "x", Role: models.RoleUser, Version: 1}
	require.NoError(t, database.DB.Create(&u).Error)
	token, err := utils.GenerateToken(u.ID, u.Role)
	require.NoError(t, err)
	r := newRouter()

	var resp struct {
		Data models.UserPreferences `json:"data"`
	}

	w := do(r, http.MethodGet, "/api/settings", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ThemeSystem, resp.Data.Theme)

	w = do(r, http.MethodPatch, "/api/settings", token, `{"theme": "dark", "copy_with_placeholders": true}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ThemeDark, resp.Data.Theme)
	assert.True(t, resp.Data.CopyWithPlaceholders)
	assert.True(t, resp.Data.EmailNotifications)

	w = do(r, http.MethodPatch, "/api/settings", token, `{"theme": "sepia"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
