package models

import "time"

type VoteOutcome string

const (
	VoteOutcomePositive VoteOutcome = "positive"
	VoteOutcomeNegative VoteOutcome = "negative"
)

func (o VoteOutcome) Valid() bool {
	return o == VoteOutcomePositive || o == VoteOutcomeNegative
}

// PromptVote is a user's current judgment of a prompt. The unique index
// keeps a single row per (prompt, user).
type PromptVote struct {
	ID        uint        `gorm:"primarykey" json:"id"`
	PromptID  uint        `gorm:"not null;uniqueIndex:idx_prompt_vote_user" json:"prompt_id"`
	UserID    uint        `gorm:"not null;uniqueIndex:idx_prompt_vote_user;index" json:"user_id"`
	Outcome   VoteOutcome `gorm:"size:20;not null;index" json:"outcome"`
	Feedback  *string     `gorm:"type:text" json:"feedback"`
	CreatedAt time.Time   `json:"created_at"`
}
