package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nmang004/atlas-sub000/internal/database"
	"github.com/nmang004/atlas-sub000/internal/metrics"
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const MaxFeedbackLength = 2000

// VoteResult is the stored vote and the prompt aggregate after it.
type VoteResult struct {
	Vote      models.PromptVote `json:"vote"`
	Rating    RatingState       `json:"rating"`
	IsFlagged bool              `json:"is_flagged"`
}

// CastVote records userID's judgment of a prompt and updates its rating.
//
// A negative vote flags the prompt; a positive vote re-verifies it. A later
// vote by the same user replaces the earlier one. When the rate limiter
// cannot be reached the vote is allowed.
func CastVote(ctx context.Context, promptID, userID uint, outcome models.VoteOutcome, feedback string) (*VoteResult, error) {
	if !outcome.Valid() {
		return nil, newValidationError("outcome", "Field 'outcome' must be one of: positive negative", "positive negative", string(outcome))
	}

	slot, allowed, err := VoteLimiter.Reserve(ctx, userID)
	if err != nil {
		logger.Log.Warn("Vote rate limiter unavailable, allowing vote",
			zap.Uint("user_id", userID), zap.Uint("prompt_id", promptID), zap.Error(err))
		metrics.Default.RateLimiterFailOpenTotal.Inc()
		allowed = true
	}
	if !allowed {
		metrics.Default.VotesRateLimitedTotal.Inc()
		return nil, ErrRateLimited
	}

	now := Now()
	vote := models.PromptVote{
		PromptID:  promptID,
		UserID:    userID,
		Outcome:   outcome,
		Feedback:  normalizeFeedback(outcome, feedback),
		CreatedAt: now,
	}

	var prompt models.Prompt
	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The row lock serializes votes on one prompt, so the prior-vote read
		// below cannot race a concurrent first vote by the same user.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Take(&models.Prompt{}, promptID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPromptNotFound
			}
			return err
		}

		var previous *models.VoteOutcome
		var prior models.PromptVote
		err := tx.Where("prompt_id = ? AND user_id = ?", promptID, userID).Take(&prior).Error
		switch {
		case err == nil:
			previous = &prior.Outcome
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "prompt_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"outcome", "feedback", "created_at"}),
		}).Create(&vote).Error; err != nil {
			return err
		}

		if err := applyVote(tx, promptID, previous, outcome, now); err != nil {
			return err
		}

		var stored models.PromptVote
		if err := tx.Where("prompt_id = ? AND user_id = ?", promptID, userID).Take(&stored).Error; err != nil {
			return err
		}
		vote = stored
		return tx.First(&prompt, promptID).Error
	})
	if err != nil {
		// A vote that was not recorded does not count against the limit.
		if relErr := VoteLimiter.Release(ctx, userID, slot); relErr != nil {
			logger.Log.Warn("Failed to release vote rate slot", zap.Uint("user_id", userID), zap.Error(relErr))
		}
		if errors.Is(err, ErrPromptNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("record vote on prompt %d: %w", promptID, err)
	}

	invalidatePromptCache(ctx, promptID)
	metrics.Default.VotesTotal.WithLabelValues(string(outcome)).Inc()
	logger.Log.Info("Vote recorded",
		zap.Uint("prompt_id", promptID), zap.Uint("user_id", userID), zap.String("outcome", string(outcome)))

	return &VoteResult{
		Vote: vote,
		Rating: RatingState{
			Score:         prompt.RatingScore,
			VoteCount:     prompt.VoteCount,
			PositiveCount: prompt.PositiveVoteCount,
		},
		IsFlagged: prompt.IsFlagged,
	}, nil
}

// applyVote moves the prompt's aggregate in a single UPDATE so concurrent
// votes on the same prompt cannot overwrite each other.
func applyVote(tx *gorm.DB, promptID uint, previous *models.VoteOutcome, outcome models.VoteOutcome, now time.Time) error {
	countDelta, positiveDelta := voteDeltas(previous, outcome)

	updates := map[string]interface{}{
		"vote_count":          gorm.Expr("vote_count + ?", countDelta),
		"positive_vote_count": gorm.Expr("positive_vote_count + ?", positiveDelta),
		"rating_score": gorm.Expr(
			"CASE WHEN vote_count + ? > 0 THEN (positive_vote_count + ?) * 100.0 / (vote_count + ?) ELSE 0 END",
			countDelta, positiveDelta, countDelta,
		),
	}
	if outcome == models.VoteOutcomeNegative {
		updates["is_flagged"] = true
	} else {
		updates["last_verified_at"] = now
	}

	result := tx.Model(&models.Prompt{}).Where("id = ?", promptID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPromptNotFound
	}
	return nil
}

// normalizeFeedback keeps feedback only on negative votes.
func normalizeFeedback(outcome models.VoteOutcome, feedback string) *string {
	if outcome != models.VoteOutcomeNegative {
		return nil
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil
	}
	if utf8.RuneCountInString(feedback) > MaxFeedbackLength {
		feedback = string([]rune(feedback)[:MaxFeedbackLength])
	}
	return &feedback
}

// GetVote returns userID's current vote on a prompt, or nil when there is
// none.
func GetVote(ctx context.Context, promptID, userID uint) (*models.PromptVote, error) {
	var vote models.PromptVote
	err := database.DB.WithContext(ctx).Where("prompt_id = ? AND user_id = ?", promptID, userID).Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load vote: %w", err)
	}
	return &vote, nil
}
