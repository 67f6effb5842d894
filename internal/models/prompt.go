package models

import (
	"time"

	"gorm.io/datatypes"
)

// Prompt is a reusable prompt with its quality signals.
//
// RatingScore is PositiveVoteCount / VoteCount * 100, or 0 with no votes.
// Children are removed by the storage layer when the prompt is deleted.
type Prompt struct {
	ID                uint                        `gorm:"primarykey" json:"id"`
	Title             string                      `gorm:"size:200;not null" json:"title"`
	Content           string                      `gorm:"type:text;not null" json:"content"`
	CategoryID        *uint                       `gorm:"index" json:"category_id"`
	Tags              datatypes.JSONSlice[string] `json:"tags"`
	DataRequirements  *string                     `gorm:"type:text" json:"data_requirements"`
	ReviewChecklist   *string                     `gorm:"type:text" json:"review_checklist"`
	ModelVersion      *string                     `gorm:"size:100" json:"model_version"`
	RatingScore       float64                     `gorm:"not null;default:0" json:"rating_score"`
	VoteCount         int                         `gorm:"not null;default:0" json:"vote_count"`
	PositiveVoteCount int                         `gorm:"not null;default:0" json:"positive_vote_count"`
	IsFlagged         bool                        `gorm:"not null;default:false;index" json:"is_flagged"`
	LastVerifiedAt    time.Time                   `gorm:"index;not null" json:"last_verified_at"`
	CreatedBy         *uint                       `gorm:"index" json:"created_by"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`

	Variables []PromptVariable `gorm:"foreignKey:PromptID;constraint:OnDelete:CASCADE" json:"-"`
	Variants  []PromptVariant  `gorm:"foreignKey:PromptID;constraint:OnDelete:CASCADE" json:"-"`
	Examples  []PromptExample  `gorm:"foreignKey:PromptID;constraint:OnDelete:CASCADE" json:"-"`
	Votes     []PromptVote     `gorm:"foreignKey:PromptID;constraint:OnDelete:CASCADE" json:"-"`
}

type VariableType string

const (
	VariableTypeText     VariableType = "text"
	VariableTypeTextarea VariableType = "textarea"
	VariableTypeSelect   VariableType = "select"
)

// PromptVariable is one {{key}} slot of a prompt. Rows are replaced wholesale
// on every edit, so IDs are not stable.
type PromptVariable struct {
	ID          uint                        `gorm:"primarykey" json:"id"`
	PromptID    uint                        `gorm:"not null;uniqueIndex:idx_prompt_variable_key" json:"prompt_id"`
	Key         string                      `gorm:"size:100;not null;uniqueIndex:idx_prompt_variable_key" json:"key"`
	Label       string                      `gorm:"size:200;not null" json:"label"`
	Type        VariableType                `gorm:"size:20;not null" json:"type"`
	Placeholder *string                     `gorm:"size:500" json:"placeholder"`
	IsRequired  bool                        `gorm:"not null" json:"is_required"`
	Options     datatypes.JSONSlice[string] `json:"options"`
	OrderIndex  int                         `gorm:"not null" json:"order_index"`
	CreatedAt   time.Time                   `json:"created_at"`
}

type VariantType string

const (
	VariantTypeBasic    VariantType = "basic"
	VariantTypeAdvanced VariantType = "advanced"
	VariantTypeCustom   VariantType = "custom"
)

type PromptVariant struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	PromptID    uint        `gorm:"index;not null" json:"prompt_id"`
	VariantType VariantType `gorm:"size:20;not null" json:"variant_type"`
	Name        string      `gorm:"size:100;not null" json:"name"`
	Content     string      `gorm:"type:text;not null" json:"content"`
	Description *string     `gorm:"size:500" json:"description"`
	OrderIndex  int         `gorm:"not null" json:"order_index"`
	CreatedAt   time.Time   `json:"created_at"`
}

// PromptExample pairs a weak prompt with a strong one. Examples are seeded
// externally; the API only reads them.
type PromptExample struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	PromptID     uint      `gorm:"index;not null" json:"prompt_id"`
	WeakPrompt   string    `gorm:"type:text;not null" json:"weak_prompt"`
	StrongPrompt string    `gorm:"type:text;not null" json:"strong_prompt"`
	WeakOutput   *string   `gorm:"type:text" json:"weak_output"`
	StrongOutput *string   `gorm:"type:text" json:"strong_output"`
	CreatedAt    time.Time `json:"created_at"`
}
