package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nmang004/atlas-sub000/internal/checklist"
	"github.com/nmang004/atlas-sub000/internal/database"
	"github.com/nmang004/atlas-sub000/internal/lifecycle"
	"github.com/nmang004/atlas-sub000/internal/metrics"
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/internal/template"
	"github.com/nmang004/atlas-sub000/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	PromptCacheKeyPrefix = "prompt:id:"
	promptCacheGenPrefix = "prompt:gen:"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// StatusNeedsAttention selects flagged or stale prompts in ListPrompts.
const StatusNeedsAttention = "needs_attention"

// PromptFilter narrows ListPrompts. Zero values mean "no filter".
type PromptFilter struct {
	CategoryID *uint
	Tag        string
	Search     string
	Status     string
	Page       int
	Limit      int
}

// PromptSummary is a prompt with its read-time lifecycle state.
type PromptSummary struct {
	models.Prompt
	Status            lifecycle.Status `json:"status"`
	NeedsAttention    bool             `json:"needs_attention"`
	DaysSinceVerified int              `json:"days_since_verified"`
}

// PromptDetail is a prompt with every child record and its parsed checklist.
type PromptDetail struct {
	PromptSummary
	Variables []models.PromptVariable `json:"variables"`
	Variants  []models.PromptVariant  `json:"variants"`
	Examples  []models.PromptExample  `json:"examples"`
	Checklist []checklist.Item        `json:"checklist"`
}

// RenderResult is prompt or variant content with variables substituted.
type RenderResult struct {
	Content string   `json:"content"`
	Missing []string `json:"missing"`
}

func Summarize(prompt models.Prompt, now time.Time) PromptSummary {
	c := Lifecycle()
	return PromptSummary{
		Prompt:            prompt,
		Status:            c.Status(prompt.IsFlagged, prompt.LastVerifiedAt, now),
		NeedsAttention:    c.NeedsAttention(prompt.IsFlagged, prompt.LastVerifiedAt, now),
		DaysSinceVerified: lifecycle.DaysSince(prompt.LastVerifiedAt, now),
	}
}

// CreatePrompt validates input and stores a new prompt. When no variables are
// submitted they are derived from the {{key}} tokens in the content.
func CreatePrompt(ctx context.Context, creatorID uint, input PromptInput) (*models.Prompt, error) {
	if err := ValidatePromptInput(&input); err != nil {
		return nil, err
	}
	if err := ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	now := Now()
	prompt := &models.Prompt{
		Title:            input.Title,
		Content:          input.Content,
		CategoryID:       input.CategoryID,
		Tags:             datatypes.JSONSlice[string](input.Tags),
		DataRequirements: input.DataRequirements,
		ReviewChecklist:  input.ReviewChecklist,
		ModelVersion:     input.ModelVersion,
		LastVerifiedAt:   now,
		CreatedBy:        &creatorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := database.DB.WithContext(ctx).Omit(clause.Associations).Create(prompt).Error; err != nil {
		return nil, fmt.Errorf("create prompt: %w", err)
	}

	variables := input.Variables
	if len(variables) == 0 {
		variables = variablesFromContent(input.Content)
	}
	writeChildren(ctx, prompt.ID, variables, input.Variants, true, input.Variants != nil)

	metrics.Default.PromptWritesTotal.WithLabelValues("create").Inc()
	logger.Log.Info("Prompt created", zap.Uint("prompt_id", prompt.ID), zap.Uint("user_id", creatorID))
	return prompt, nil
}

// UpdatePrompt replaces a prompt's content fields. Variables and variants are
// replaced wholesale when submitted.
func UpdatePrompt(ctx context.Context, id uint, input PromptInput) (*models.Prompt, error) {
	if err := ValidatePromptInput(&input); err != nil {
		return nil, err
	}

	db := database.DB.WithContext(ctx)
	var prompt models.Prompt
	if err := db.First(&prompt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("load prompt %d: %w", id, err)
	}
	if err := ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":             input.Title,
		"content":           input.Content,
		"category_id":       input.CategoryID,
		"tags":              datatypes.JSONSlice[string](input.Tags),
		"data_requirements": input.DataRequirements,
		"review_checklist":  input.ReviewChecklist,
		"model_version":     input.ModelVersion,
		"updated_at":        Now(),
	}
	if err := db.Model(&models.Prompt{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update prompt %d: %w", id, err)
	}
	if err := db.First(&prompt, id).Error; err != nil {
		return nil, fmt.Errorf("reload prompt %d: %w", id, err)
	}

	writeChildren(ctx, id, input.Variables, input.Variants, input.Variables != nil, input.Variants != nil)
	invalidatePromptCache(ctx, id)

	metrics.Default.PromptWritesTotal.WithLabelValues("update").Inc()
	logger.Log.Info("Prompt updated", zap.Uint("prompt_id", id))
	return &prompt, nil
}

// DeletePrompt removes a prompt. Variables, variants, examples and votes are
// removed by the foreign-key cascade.
func DeletePrompt(ctx context.Context, id uint) error {
	result := database.DB.WithContext(ctx).Delete(&models.Prompt{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete prompt %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPromptNotFound
	}

	invalidatePromptCache(ctx, id)
	metrics.Default.PromptWritesTotal.WithLabelValues("delete").Inc()
	logger.Log.Info("Prompt deleted", zap.Uint("prompt_id", id))
	return nil
}

// GetPrompt retrieves a prompt by id, using cache.
func GetPrompt(ctx context.Context, id uint) (*models.Prompt, error) {
	cacheKey := promptCacheKey(id)

	if database.RedisClient != nil {
		val, err := database.RedisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var prompt models.Prompt
			if err := json.Unmarshal([]byte(val), &prompt); err == nil {
				return &prompt, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Prompt cache read failed", zap.Uint("prompt_id", id), zap.Error(err))
		}
	}

	// Sampled before the row is read so a write landing in between
	// keeps this copy out of the cache.
	gen := promptCacheGeneration(ctx, id)

	var prompt models.Prompt
	if err := database.DB.WithContext(ctx).First(&prompt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("load prompt %d: %w", id, err)
	}

	cachePrompt(ctx, id, gen, &prompt)
	return &prompt, nil
}

// GetPromptDetail loads a prompt with its children ordered for display.
func GetPromptDetail(ctx context.Context, id uint) (*PromptDetail, error) {
	prompt, err := GetPrompt(ctx, id)
	if err != nil {
		return nil, err
	}

	db := database.DB.WithContext(ctx)
	detail := &PromptDetail{
		PromptSummary: Summarize(*prompt, Now()),
		Variables:     []models.PromptVariable{},
		Variants:      []models.PromptVariant{},
		Examples:      []models.PromptExample{},
		Checklist:     []checklist.Item{},
	}
	if err := db.Where("prompt_id = ?", id).Order("order_index, id").Find(&detail.Variables).Error; err != nil {
		return nil, fmt.Errorf("load variables for prompt %d: %w", id, err)
	}
	if err := db.Where("prompt_id = ?", id).Order("order_index, id").Find(&detail.Variants).Error; err != nil {
		return nil, fmt.Errorf("load variants for prompt %d: %w", id, err)
	}
	if err := db.Where("prompt_id = ?", id).Order("id").Find(&detail.Examples).Error; err != nil {
		return nil, fmt.Errorf("load examples for prompt %d: %w", id, err)
	}
	if prompt.ReviewChecklist != nil {
		if items := checklist.Parse(*prompt.ReviewChecklist); len(items) > 0 {
			detail.Checklist = items
		}
	}
	return detail, nil
}

// ListPrompts retrieves a paginated, filtered list of prompts, newest first.
func ListPrompts(ctx context.Context, filter PromptFilter) ([]PromptSummary, int64, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	now := Now()

	db := database.DB.WithContext(ctx).Model(&models.Prompt{})
	if filter.CategoryID != nil {
		db = db.Where("category_id = ?", *filter.CategoryID)
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		db = whereHasTag(db, tag)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", like, like)
	}

	cutoff := Lifecycle().Cutoff(now)
	switch lifecycle.Status(filter.Status) {
	case "":
	case lifecycle.StatusFlagged:
		db = db.Where("is_flagged = ?", true)
	case lifecycle.StatusStale:
		db = db.Where("is_flagged = ? AND last_verified_at <= ?", false, cutoff)
	case lifecycle.StatusClean:
		db = db.Where("is_flagged = ? AND last_verified_at > ?", false, cutoff)
	case StatusNeedsAttention:
		db = db.Where("is_flagged = ? OR last_verified_at <= ?", true, cutoff)
	default:
		return nil, 0, newValidationError("status",
			"Field 'status' must be one of: clean stale flagged needs_attention",
			"clean stale flagged needs_attention", filter.Status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count prompts: %w", err)
	}

	var prompts []models.Prompt
	offset := (page - 1) * limit
	if err := db.Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&prompts).Error; err != nil {
		return nil, 0, fmt.Errorf("list prompts: %w", err)
	}

	summaries := make([]PromptSummary, 0, len(prompts))
	for _, p := range prompts {
		summaries = append(summaries, Summarize(p, now))
	}
	return summaries, total, nil
}

// RenderPrompt substitutes vars into a prompt, or into one of its variants
// when variantID is set. Unless allowMissing is set, blank required
// variables are a validation error.
func RenderPrompt(ctx context.Context, id uint, variantID *uint, vars map[string]string, allowMissing bool) (*RenderResult, error) {
	prompt, err := GetPrompt(ctx, id)
	if err != nil {
		return nil, err
	}

	db := database.DB.WithContext(ctx)
	content := prompt.Content
	if variantID != nil {
		var variant models.PromptVariant
		if err := db.Where("id = ? AND prompt_id = ?", *variantID, id).Take(&variant).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrVariantNotFound
			}
			return nil, fmt.Errorf("load variant %d: %w", *variantID, err)
		}
		content = variant.Content
	}

	var defs []models.PromptVariable
	if err := db.Where("prompt_id = ?", id).Order("order_index, id").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("load variables for prompt %d: %w", id, err)
	}

	missing := template.MissingRequired(defs, vars)
	if len(missing) > 0 && !allowMissing {
		verr := &ValidationError{}
		for _, key := range missing {
			verr.Details = append(verr.Details, newValidationError(
				"variables."+key,
				fmt.Sprintf("Variable '%s' is required", key),
				"non-empty value",
				vars[key],
			).Details...)
		}
		return nil, verr
	}
	if missing == nil {
		missing = []string{}
	}

	return &RenderResult{Content: template.Assemble(content, vars), Missing: missing}, nil
}

// UnflagPrompt clears a prompt's flag after admin review.
func UnflagPrompt(ctx context.Context, id uint) (*models.Prompt, error) {
	return adminUpdate(ctx, id, "unflag", map[string]interface{}{"is_flagged": false})
}

// MarkReviewed re-verifies a prompt, resetting its staleness clock.
func MarkReviewed(ctx context.Context, id uint) (*models.Prompt, error) {
	return adminUpdate(ctx, id, "review", map[string]interface{}{"last_verified_at": Now()})
}

func adminUpdate(ctx context.Context, id uint, operation string, updates map[string]interface{}) (*models.Prompt, error) {
	db := database.DB.WithContext(ctx)
	result := db.Model(&models.Prompt{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("%s prompt %d: %w", operation, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrPromptNotFound
	}

	var prompt models.Prompt
	if err := db.First(&prompt, id).Error; err != nil {
		return nil, fmt.Errorf("reload prompt %d: %w", id, err)
	}

	invalidatePromptCache(ctx, id)
	metrics.Default.PromptWritesTotal.WithLabelValues(operation).Inc()
	logger.Log.Info("Prompt governance action", zap.Uint("prompt_id", id), zap.String("operation", operation))
	return &prompt, nil
}

// writeChildren replaces the selected child sets. The parent write has
// already succeeded, so failures are logged and counted only.
func writeChildren(ctx context.Context, promptID uint, variables []VariableInput, variants []VariantInput, replaceVariables, replaceVariants bool) {
	if replaceVariables {
		if err := replaceVariableRows(ctx, promptID, variables); err != nil {
			metrics.Default.ChildWriteFailuresTotal.WithLabelValues("variables").Inc()
			logger.Log.Error("Failed to write prompt variables", zap.Uint("prompt_id", promptID), zap.Error(err))
		}
	}
	if replaceVariants {
		if err := replaceVariantRows(ctx, promptID, variants); err != nil {
			metrics.Default.ChildWriteFailuresTotal.WithLabelValues("variants").Inc()
			logger.Log.Error("Failed to write prompt variants", zap.Uint("prompt_id", promptID), zap.Error(err))
		}
	}
}

func replaceVariableRows(ctx context.Context, promptID uint, inputs []VariableInput) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("prompt_id = ?", promptID).Delete(&models.PromptVariable{}).Error; err != nil {
			return err
		}
		if len(inputs) == 0 {
			return nil
		}

		now := Now()
		rows := make([]models.PromptVariable, 0, len(inputs))
		for i, in := range inputs {
			label := in.Label
			if label == "" {
				label = in.Key
			}
			rows = append(rows, models.PromptVariable{
				PromptID:    promptID,
				Key:         in.Key,
				Label:       label,
				Type:        in.Type,
				Placeholder: in.Placeholder,
				IsRequired:  in.IsRequired,
				Options:     datatypes.JSONSlice[string](in.Options),
				OrderIndex:  orderIndex(in.OrderIndex, i),
				CreatedAt:   now,
			})
		}
		return tx.Create(&rows).Error
	})
}

func replaceVariantRows(ctx context.Context, promptID uint, inputs []VariantInput) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("prompt_id = ?", promptID).Delete(&models.PromptVariant{}).Error; err != nil {
			return err
		}
		if len(inputs) == 0 {
			return nil
		}

		now := Now()
		rows := make([]models.PromptVariant, 0, len(inputs))
		for i, in := range inputs {
			rows = append(rows, models.PromptVariant{
				PromptID:    promptID,
				VariantType: in.VariantType,
				Name:        in.Name,
				Content:     in.Content,
				Description: in.Description,
				OrderIndex:  orderIndex(in.OrderIndex, i),
				CreatedAt:   now,
			})
		}
		return tx.Create(&rows).Error
	})
}

func variablesFromContent(content string) []VariableInput {
	keys := template.ExtractKeys(content)
	if len(keys) > MaxVariables {
		keys = keys[:MaxVariables]
	}
	vars := make([]VariableInput, 0, len(keys))
	for _, key := range keys {
		vars = append(vars, VariableInput{Key: key, Label: key, Type: models.VariableTypeText})
	}
	return vars
}

func orderIndex(explicit *int, position int) int {
	if explicit != nil {
		return *explicit
	}
	return position
}

func ensureCategory(ctx context.Context, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := database.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
		return fmt.Errorf("load category %d: %w", *categoryID, err)
	}
	if count == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// whereHasTag matches prompts whose JSON tag array contains tag.
func whereHasTag(db *gorm.DB, tag string) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		data, _ := json.Marshal([]string{tag})
		return db.Where("tags::jsonb @> ?::jsonb", string(data))
	}
	return db.Where("EXISTS (SELECT 1 FROM json_each(prompts.tags) WHERE json_each.value = ?)", tag)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func promptCacheKey(id uint) string {
	return fmt.Sprintf("%s%d", PromptCacheKeyPrefix, id)
}

func promptCacheGenKey(id uint) string {
	return fmt.Sprintf("%s%d", promptCacheGenPrefix, id)
}

// cachePromptScript stores a prompt only while the generation still matches
// the one the reader sampled.
var cachePromptScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if (gen or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// promptCacheGeneration returns the current write generation of a prompt,
// or "" when it cannot be read and the result must not be cached.
func promptCacheGeneration(ctx context.Context, id uint) string {
	if database.RedisClient == nil {
		return ""
	}
	gen, err := database.RedisClient.Get(ctx, promptCacheGenKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "0"
	}
	if err != nil {
		logger.Log.Warn("Prompt cache generation read failed", zap.Uint("prompt_id", id), zap.Error(err))
		return ""
	}
	return gen
}

func cachePrompt(ctx context.Context, id uint, gen string, prompt *models.Prompt) {
	if database.RedisClient == nil || gen == "" {
		return
	}
	data, err := json.Marshal(prompt)
	if err != nil {
		return
	}
	err = cachePromptScript.Run(ctx, database.RedisClient,
		[]string{promptCacheKey(id), promptCacheGenKey(id)},
		gen, data, PromptCacheDuration.Milliseconds(),
	).Err()
	if err != nil {
		logger.Log.Warn("Prompt cache write failed", zap.Uint("prompt_id", id), zap.Error(err))
	}
}

// invalidatePromptCache drops the cached row and bumps the generation so a
// read that started before the write cannot store its stale copy.
func invalidatePromptCache(ctx context.Context, id uint) {
	if database.RedisClient == nil {
		return
	}
	genKey := promptCacheGenKey(id)
	pipe := database.RedisClient.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.PExpire(ctx, genKey, PromptCacheDuration+time.Hour)
	pipe.Del(ctx, promptCacheKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("Failed to invalidate prompt cache", zap.Uint("prompt_id", id), zap.Error(err))
	}
}
