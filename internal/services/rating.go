package services

import (
	"math"

	"github.com/nmang004/atlas-sub000/internal/models"
)

// RatingState is a prompt's vote aggregate.
type RatingState struct {
	Score         float64 `json:"rating_score"`
	VoteCount     int     `json:"vote_count"`
	PositiveCount int     `json:"positive_vote_count"`
}

// voteDeltas is how a vote moves the counters. A replacement vote keeps the
// count and only shifts the positive tally by the change in outcome.
func voteDeltas(previous *models.VoteOutcome, next models.VoteOutcome) (countDelta, positiveDelta int) {
	if next == models.VoteOutcomePositive {
		positiveDelta = 1
	}
	if previous == nil {
		return 1, positiveDelta
	}
	if *previous == models.VoteOutcomePositive {
		positiveDelta--
	}
	return 0, positiveDelta
}

// NextRating applies one accepted vote. previous is the caller's earlier
// outcome on the same prompt, or nil for a first vote.
func NextRating(state RatingState, previous *models.VoteOutcome, next models.VoteOutcome) RatingState {
	countDelta, positiveDelta := voteDeltas(previous, next)
	out := RatingState{
		VoteCount:     state.VoteCount + countDelta,
		PositiveCount: state.PositiveCount + positiveDelta,
	}
	out.Score = ScoreOf(out.PositiveCount, out.VoteCount)
	return out
}

// ScoreOf is the positive percentage, 0 with no votes.
func ScoreOf(positive, count int) float64 {
	if count <= 0 {
		return 0
	}
	return float64(positive) / float64(count) * 100
}

// PositiveFromScore recovers a positive tally from a stored percentage.
// Rounding makes it approximate; it is only used to backfill rows that
// predate the explicit counter.
func PositiveFromScore(score float64, count int) int {
	if count <= 0 {
		return 0
	}
	return int(math.Round(score / 100 * float64(count)))
}
