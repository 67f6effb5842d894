package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nmang004/atlas-sub000/internal/database"
	"github.com/nmang004/atlas-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferencesPatch carries only the settings the caller wants to change.
type PreferencesPatch struct {
	Theme                *string `json:"theme" binding:"omitempty,oneof=light dark system"`
	EmailNotifications   *bool   `json:"email_notifications"`
	FlagNotifications    *bool   `json:"flag_notifications"`
	PreferredModel       *string `json:"preferred_model" binding:"omitempty,max=100"`
	CopyWithPlaceholders *bool   `json:"copy_with_placeholders"`
}

// GetPreferences returns the user's settings, creating the defaults on first
// read.
func GetPreferences(ctx context.Context, userID uint) (*models.UserPreferences, error) {
	db := database.DB.WithContext(ctx)

	var prefs models.UserPreferences
	err := db.Where("user_id = ?", userID).Take(&prefs).Error
	if err == nil {
		return &prefs, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	prefs = models.DefaultPreferences(userID)
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&prefs).Error; err != nil {
		return nil, fmt.Errorf("create preferences: %w", err)
	}
	if err := db.Where("user_id = ?", userID).Take(&prefs).Error; err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return &prefs, nil
}

// UpdatePreferences applies a partial settings change.
func UpdatePreferences(ctx context.Context, userID uint, patch PreferencesPatch) (*models.UserPreferences, error) {
	prefs, err := GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Theme != nil {
		updates["theme"] = *patch.Theme
	}
	if patch.EmailNotifications != nil {
		updates["email_notifications"] = *patch.EmailNotifications
	}
	if patch.FlagNotifications != nil {
		updates["flag_notifications"] = *patch.FlagNotifications
	}
	if patch.PreferredModel != nil {
		updates["preferred_model"] = trimOptional(patch.PreferredModel)
	}
	if patch.CopyWithPlaceholders != nil {
		updates["copy_with_placeholders"] = *patch.CopyWithPlaceholders
	}
	if len(updates) == 0 {
		return prefs, nil
	}

	db := database.DB.WithContext(ctx)
	if err := db.Model(&models.UserPreferences{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	if err := db.Where("user_id = ?", userID).Take(prefs).Error; err != nil {
		return nil, fmt.Errorf("reload preferences: %w", err)
	}
	return prefs, nil
}
