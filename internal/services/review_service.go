package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nmang004/atlas-sub000/internal/database"
	"github.com/nmang004/atlas-sub000/internal/metrics"
	"github.com/nmang004/atlas-sub000/internal/models"
)

// ReviewEntry is one prompt in the admin review queue.
type ReviewEntry struct {
	PromptSummary
	Feedback []string `json:"feedback"`
}

// DashboardStats are the admin dashboard counters.
type DashboardStats struct {
	TotalPrompts   int64   `json:"total_prompts"`
	FlaggedPrompts int64   `json:"flagged_prompts"`
	StalePrompts   int64   `json:"stale_prompts"`
	NeedsAttention int64   `json:"needs_attention"`
	TotalVotes     int64   `json:"total_votes"`
	AverageRating  float64 `json:"average_rating"`
}

// BuildReviewQueue returns every prompt that is flagged or stale at now,
// flagged first, then oldest verification first. Each entry carries the
// feedback left with negative votes, newest first.
func BuildReviewQueue(ctx context.Context, now time.Time) ([]ReviewEntry, error) {
	cutoff := Lifecycle().Cutoff(now)
	db := database.DB.WithContext(ctx)

	var prompts []models.Prompt
	if err := db.Where("is_flagged = ? OR last_verified_at <= ?", true, cutoff).
		Order("is_flagged DESC, last_verified_at ASC, id ASC").
		Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("load review queue: %w", err)
	}

	entries := make([]ReviewEntry, 0, len(prompts))
	if len(prompts) == 0 {
		metrics.Default.ReviewQueueSize.Set(0)
		return entries, nil
	}

	ids := make([]uint, 0, len(prompts))
	for _, p := range prompts {
		ids = append(ids, p.ID)
	}

	var votes []models.PromptVote
	if err := db.Where("prompt_id IN ? AND outcome = ? AND feedback IS NOT NULL AND feedback <> ''", ids, models.VoteOutcomeNegative).
		Order("created_at DESC, id DESC").
		Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("load review feedback: %w", err)
	}

	feedback := make(map[uint][]string, len(prompts))
	for _, v := range votes {
		if v.Feedback != nil {
			feedback[v.PromptID] = append(feedback[v.PromptID], *v.Feedback)
		}
	}

	for _, p := range prompts {
		fb := feedback[p.ID]
		if fb == nil {
			fb = []string{}
		}
		entries = append(entries, ReviewEntry{PromptSummary: Summarize(p, now), Feedback: fb})
	}

	metrics.Default.ReviewQueueSize.Set(float64(len(entries)))
	return entries, nil
}

// GetDashboardStats computes the admin dashboard counters at now.
func GetDashboardStats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	cutoff := Lifecycle().Cutoff(now)
	db := database.DB.WithContext(ctx)
	stats := &DashboardStats{}

	counts := []struct {
		dest  *int64
		query string
		args  []interface{}
	}{
		{&stats.TotalPrompts, "1 = 1", nil},
		{&stats.FlaggedPrompts, "is_flagged = ?", []interface{}{true}},
		{&stats.StalePrompts, "last_verified_at <= ?", []interface{}{cutoff}},
		{&stats.NeedsAttention, "is_flagged = ? OR last_verified_at <= ?", []interface{}{true, cutoff}},
	}
	for _, c := range counts {
		if err := db.Model(&models.Prompt{}).Where(c.query, c.args...).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("count prompts: %w", err)
		}
	}

	if err := db.Model(&models.PromptVote{}).Count(&stats.TotalVotes).Error; err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}

	var avg struct{ Average float64 }
	if err := db.Model(&models.Prompt{}).
		Select("COALESCE(AVG(rating_score), 0) AS average").
		Where("vote_count > 0").
		Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}
	stats.AverageRating = avg.Average

	return stats, nil
}
