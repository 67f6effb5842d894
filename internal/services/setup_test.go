package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/nmang004/atlas-sub000/internal/database"
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/pkg/logger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// setupTestDB installs a fresh in-memory database and a fixed clock.
func setupTestDB(t *testing.T) {
	t.Helper()
	logger.Log = zap.NewNop()

	dsn := database.SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return Now() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	prevDB, prevNow, prevThreshold := database.DB, Now, StaleThresholdDays
	database.DB = db
	Now = func() time.Time { return testNow }
	StaleThresholdDays = 60

	t.Cleanup(func() {
		database.DB, Now, StaleThresholdDays = prevDB, prevNow, prevThreshold
		sqlDB.Close()
	})
}

// setupTestRedis installs a miniredis-backed client and a default limiter.
func setupTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	prevClient, prevLimiter := database.RedisClient, VoteLimiter
	database.RedisClient = client
	VoteLimiter = NewRedisVoteRateLimiter(DefaultVoteRateLimit, DefaultVoteRateWindow)

	t.Cleanup(func() {
		database.RedisClient, VoteLimiter = prevClient, prevLimiter
		client.Close()
	})
	return mr
}

func createTestUser(t *testing.T, email, role string) models.User {
	t.Helper()
	user := models.User{Email: email, Password: "x", Role: role, Version: 1}
	require.NoError(t, database.DB.Create(&user).Error)
	return user
}

func createTestPrompt(t *testing.T, title string, flagged bool, lastVerified time.Time) models.Prompt {
	t.Helper()
	prompt := models.Prompt{
		Title:          title,
		Content:        "Summarize {{topic}}",
		IsFlagged:      flagged,
		LastVerifiedAt: lastVerified,
	}
	require.NoError(t, database.DB.Create(&prompt).Error)
	return prompt
}
