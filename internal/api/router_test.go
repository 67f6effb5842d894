package api

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
	"github.com/nmang004/atlas-sub000/config"
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

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	router      *gin.Engine
	adminToken  string
	memberToken string
	member      models.User
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)

	dsn := database.SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		JWTSecret:          "test_secret",
		JWTTTL:             time.Hour,
		StaleThresholdDays: 60,
		VoteRateLimit:      10,
		VoteRateWindow:     time.Minute,
		PromptCacheTTL:     time.Hour,
	}
	utils.ConfigureTokens(cfg.JWTSecret, cfg.JWTTTL)
	services.Configure(cfg)

	prevNow := services.Now
	services.Now = func() time.Time { return fixedNow }
	t.Cleanup(func() { services.Now = prevNow })

	admin := models.User{Email: "admin@example.com", Password: "x", Role: models.RoleAdmin, Version: 1}
	member := models.User{Email: "member@example.com", Password: "x", Role: models.RoleUser, Version: 1}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&member).Error)

	adminToken, err := utils.GenerateToken(admin.ID, admin.Role)
	require.NoError(t, err)
	memberToken, err := utils.GenerateToken(member.ID, member.Role)
	require.NoError(t, err)

	return &testEnv{
		router:      NewRouter(cfg),
		adminToken:  adminToken,
		memberToken: memberToken,
		member:      member,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) utils.Response {
	t.Helper()
	resp := utils.Response{Data: v}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func seedPrompt(t *testing.T, title string, flagged bool, lastVerified time.Time) models.Prompt {
	t.Helper()
	p := models.Prompt{Title: title, Content: "Explain {{topic}}", IsFlagged: flagged, LastVerifiedAt: lastVerified}
	require.NoError(t, database.DB.Create(&p).Error)
	return p
}

func TestCreatePromptAuthorizationBoundary(t *testing.T) {
	env := setupTestEnv(t)
	body := map[string]interface{}{
		"title":   "Release notes",
		"content": "Write release notes for {{version}} aimed at {{audience}}",
		"tags":    []string{"writing"},
		"variables": []map[string]interface{}{
			{"key": "version", "label": "Version", "type": "text", "is_required": true},
			{"key": "audience", "label": "Audience", "type": "select", "options": []string{"users", "ops"}},
		},
	}

	w := env.do(t, http.MethodPost, "/api/prompts", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/prompts", env.memberToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	database.DB.Model(&models.Prompt{}).Count(&count)
	assert.Zero(t, count, "rejected callers never reach storage")

	w = env.do(t, http.MethodPost, "/api/prompts", env.adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Prompt
	decodeData(t, w, &created)
	assert.Equal(t, "Release notes", created.Title)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/prompts/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail services.PromptDetail
	decodeData(t, w, &detail)
	require.Len(t, detail.Variables, 2)
	assert.Equal(t, "version", detail.Variables[0].Key)
	assert.Equal(t, []string{"users", "ops"}, []string(detail.Variables[1].Options))
}

func TestCreatePromptValidation(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/prompts", env.adminToken, map[string]interface{}{
		"title":   "",
		"content": "x",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var data utils.ValidationErrorData
	resp := decodeData(t, w, &data)
	assert.Equal(t, utils.ReasonValidationFailed, resp.Reason)
	require.NotEmpty(t, data.Errors)
	assert.Equal(t, "title", data.Errors[0].Field)

	w = env.do(t, http.MethodPost, "/api/prompts", env.adminToken, map[string]interface{}{
		"title": "t", "content": "x", "owner": "me",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoteFlow(t *testing.T) {
	env := setupTestEnv(t)
	var prompts []models.Prompt
	for i := 0; i < 11; i++ {
		prompts = append(prompts, seedPrompt(t, fmt.Sprintf("P%d", i), false, fixedNow))
	}

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/prompts/%d/vote", prompts[0].ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"vote": null}`, string(mustData(t, w)))

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/prompts/%d/vote", prompts[0].ID), "", map[string]string{"outcome": "positive"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/prompts/%d/vote", prompts[0].ID), env.memberToken, map[string]string{"outcome": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/prompts/9999/vote", env.memberToken, map[string]string{"outcome": "positive"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/prompts/%d/vote", prompts[0].ID), env.memberToken,
		map[string]string{"outcome": "negative", "feedback": "hallucinates dates"})
	require.Equal(t, http.StatusOK, w.Code)
	var result services.VoteResult
	decodeData(t, w, &result)
	assert.True(t, result.IsFlagged)
	assert.Equal(t, 1, result.Rating.VoteCount)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/prompts/%d/vote", prompts[0].ID), env.memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var current struct {
		Vote *models.PromptVote `json:"vote"`
	}
	decodeData(t, w, &current)
	require.NotNil(t, current.Vote)
	assert.Equal(t, models.VoteOutcomeNegative, current.Vote.Outcome)

	for i := 1; i < 10; i++ {
		w = env.do(t, http.MethodPost, fmt.Sprintf("/api/prompts/%d/vote", prompts[i].ID), env.memberToken, map[string]string{"outcome": "positive"})
		require.Equal(t, http.StatusOK, w.Code, "vote %d", i+1)
	}

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/prompts/%d/vote", prompts[10].ID), env.memberToken, map[string]string{"outcome": "positive"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	resp := decodeData(t, w, nil)
	assert.Equal(t, utils.ReasonRateLimited, resp.Reason)
}

func TestReviewQueueEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	p1 := seedPrompt(t, "P1", true, fixedNow.AddDate(0, 0, -1))
	p2 := seedPrompt(t, "P2", false, fixedNow.AddDate(0, 0, -90))
	seedPrompt(t, "P3", false, fixedNow.AddDate(0, 0, -1))

	w := env.do(t, http.MethodGet, "/api/admin/review-queue", env.memberToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/admin/review-queue", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var queue struct {
		Entries []services.ReviewEntry `json:"entries"`
		Total   int                    `json:"total"`
	}
	decodeData(t, w, &queue)
	require.Equal(t, 2, queue.Total)
	assert.Equal(t, p1.ID, queue.Entries[0].ID)
	assert.Equal(t, p2.ID, queue.Entries[1].ID)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/prompts/%d/unflag", p1.ID), env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/prompts/%d/review", p2.ID), env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/admin/review-queue", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &queue)
	assert.Zero(t, queue.Total)

	w = env.do(t, http.MethodGet, "/api/admin/stats", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.DashboardStats
	decodeData(t, w, &stats)
	assert.EqualValues(t, 3, stats.TotalPrompts)
	assert.Zero(t, stats.NeedsAttention)
}

func TestAuthRoundTrip(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "new@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "new@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Role  string `json:"role"`
		Token string `json:"token"`
	}
	decodeData(t, w, &login)
	assert.Equal(t, models.RoleUser, login.Role)
	require.NotEmpty(t, login.Token)

	w = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "new@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/profile", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCategoriesAndRender(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/categories", env.adminToken, map[string]string{"name": "Writing"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/api/categories", env.adminToken, map[string]string{"name": "writing"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categories []models.Category
	decodeData(t, w, &categories)
	require.Len(t, categories, 1)

	p := seedPrompt(t, "Explainer", false, fixedNow)
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/prompts/%d/render", p.ID), "", map[string]interface{}{
		"variables": map[string]string{"topic": "gravity"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var rendered services.RenderResult
	decodeData(t, w, &rendered)
	assert.Equal(t, "Explain gravity", rendered.Content)

	w = env.do(t, http.MethodPost, "/api/template/extract", env.memberToken, map[string]string{"content": "{{a}} {{b}} {{a}}"})
	require.Equal(t, http.StatusOK, w.Code)
	var extracted struct {
		Keys []string `json:"keys"`
	}
	decodeData(t, w, &extracted)
	assert.Equal(t, []string{"a", "b"}, extracted.Keys)
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "atlas_http_request_duration_seconds")
}

func TestSwaggerDocs(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/swagger/index.html", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Atlas API", doc.Info.Title)
	assert.Equal(t, "/api", doc.BasePath)
	assert.Contains(t, doc.Paths, "/prompts/{id}/vote")
	assert.Contains(t, doc.Paths, "/admin/review-queue")
}

func mustData(t *testing.T, w *httptest.ResponseRecorder) json.RawMessage {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}
