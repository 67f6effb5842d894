package services

import (
	"time"

	"github.com/nmang004/atlas-sub000/config"
	"github.com/nmang004/atlas-sub000/internal/lifecycle"
)

// Governance settings. Configure installs values from config at startup;
// tests override them directly.
var (
	StaleThresholdDays  = lifecycle.DefaultStaleThresholdDays
	PromptCacheDuration = 24 * time.Hour

	VoteLimiter RateLimiter = NewRedisVoteRateLimiter(DefaultVoteRateLimit, DefaultVoteRateWindow)

	// Now is the clock used for verification stamps, staleness and
	// rate-limit windows.
	Now = func() time.Time { return time.Now().UTC() }
)

func Configure(cfg *config.Config) {
	if cfg.StaleThresholdDays > 0 {
		StaleThresholdDays = cfg.StaleThresholdDays
	}
	if cfg.PromptCacheTTL > 0 {
		PromptCacheDuration = cfg.PromptCacheTTL
	}
	VoteLimiter = NewRedisVoteRateLimiter(cfg.VoteRateLimit, cfg.VoteRateWindow)
}

// Lifecycle returns the classifier for the configured threshold.
func Lifecycle() lifecycle.Classifier {
	return lifecycle.NewClassifier(StaleThresholdDays)
}
