package services

import (
	"context"
	"testing"
	"time"

	"github.com/nmang004/atlas-sub000/internal/database"
	"github.com/nmang004/atlas-sub000/internal/lifecycle"
	"github.com/nmang004/atlas-sub000/internal/metrics"
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReviewQueueOrdering(t *testing.T) {
	setupTestDB(t)
	p1 := createTestPrompt(t, "P1", true, testNow.AddDate(0, 0, -1))
	p2 := createTestPrompt(t, "P2", false, testNow.AddDate(0, 0, -90))
	createTestPrompt(t, "P3", false, testNow.AddDate(0, 0, -1))

	queue, err := BuildReviewQueue(context.Background(), testNow)
	require.NoError(t, err)

	require.Len(t, queue, 2)
	assert.Equal(t, p1.ID, queue[0].ID)
	assert.Equal(t, lifecycle.StatusFlagged, queue[0].Status)
	assert.Equal(t, p2.ID, queue[1].ID)
	assert.Equal(t, lifecycle.StatusStale, queue[1].Status)
	assert.Equal(t, 90, queue[1].DaysSinceVerified)
	assert.Equal(t, []string{}, queue[1].Feedback)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Default.ReviewQueueSize))
}

func TestBuildReviewQueueStaleOrderAndFeedback(t *testing.T) {
	setupTestDB(t)
	older := createTestPrompt(t, "Older", false, testNow.AddDate(0, 0, -200))
	newer := createTestPrompt(t, "Newer", false, testNow.AddDate(0, 0, -61))
	flagged := createTestPrompt(t, "Flagged", true, testNow.AddDate(0, 0, -300))

	first, second := "first", "second"
	votes := []models.PromptVote{
		{PromptID: flagged.ID, UserID: 1, Outcome: models.VoteOutcomeNegative, Feedback: &first, CreatedAt: testNow.Add(-2 * time.Hour)},
		{PromptID: flagged.ID, UserID: 2, Outcome: models.VoteOutcomeNegative, Feedback: &second, CreatedAt: testNow.Add(-time.Hour)},
		{PromptID: flagged.ID, UserID: 3, Outcome: models.VoteOutcomeNegative, CreatedAt: testNow},
		{PromptID: flagged.ID, UserID: 4, Outcome: models.VoteOutcomePositive, CreatedAt: testNow},
	}
	require.NoError(t, database.DB.Create(&votes).Error)

	queue, err := BuildReviewQueue(context.Background(), testNow)
	require.NoError(t, err)

	require.Len(t, queue, 3)
	assert.Equal(t, []uint{flagged.ID, older.ID, newer.ID}, []uint{queue[0].ID, queue[1].ID, queue[2].ID})
	assert.Equal(t, []string{"second", "first"}, queue[0].Feedback)
}

func TestBuildReviewQueueEmpty(t *testing.T) {
	setupTestDB(t)
	createTestPrompt(t, "Fresh", false, testNow)

	queue, err := BuildReviewQueue(context.Background(), testNow)
	require.NoError(t, err)
	assert.Empty(t, queue)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Default.ReviewQueueSize))
}

func TestGetDashboardStats(t *testing.T) {
	setupTestDB(t)
	setupTestRedis(t)
	ctx := context.Background()
	fresh := createTestPrompt(t, "Fresh", false, testNow)
	createTestPrompt(t, "Stale", false, testNow.AddDate(0, 0, -70))
	createTestPrompt(t, "Both", true, testNow.AddDate(0, 0, -70))

	u1 := createTestUser(t, "1@example.com", models.RoleUser)
	u2 := createTestUser(t, "2@example.com", models.RoleUser)
	_, err := CastVote(ctx, fresh.ID, u1.ID, models.VoteOutcomePositive, "")
	require.NoError(t, err)
	_, err = CastVote(ctx, fresh.ID, u2.ID, models.VoteOutcomeNegative, "")
	require.NoError(t, err)

	stats, err := GetDashboardStats(ctx, testNow)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalPrompts)
	assert.EqualValues(t, 2, stats.FlaggedPrompts)
	assert.EqualValues(t, 2, stats.StalePrompts)
	assert.EqualValues(t, 3, stats.NeedsAttention)
	assert.EqualValues(t, 2, stats.TotalVotes)
	assert.InDelta(t, 50.0, stats.AverageRating, 0.001)
}
