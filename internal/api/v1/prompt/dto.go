package prompt

import (
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/internal/services"
)

// PromptListResponse is a page of prompts.
type PromptListResponse struct {
	Prompts []services.PromptSummary `json:"prompts"`
	Total   int64                    `json:"total"`
	Page    int                      `json:"page"`
	Limit   int                      `json:"limit"`
}

type VoteRequest struct {
	Outcome  models.VoteOutcome `json:"outcome" binding:"required,oneof=positive negative"`
	Feedback string             `json:"feedback" binding:"max=10000"`
}

// VoteResponse wraps the caller's vote; Vote is null when there is none.
type VoteResponse struct {
	Vote *models.PromptVote `json:"vote"`
}

type RenderRequest struct {
	Variables    map[string]string `json:"variables"`
	VariantID    *uint             `json:"variant_id"`
	AllowMissing bool              `json:"allow_missing"`
}

type ExtractRequest struct {
	Content string `json:"content" binding:"required,max=50000"`
}

type ExtractResponse struct {
	Keys []string `json:"keys"`
}
