package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nmang004/atlas-sub000/internal/database"
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := database.DB.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory adds a category. Names are unique, compared case-insensitively.
func CreateCategory(ctx context.Context, name string, description *string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > 100 {
		return nil, newValidationError("name", "Field 'name' must be between 1 and 100 characters", "1-100 characters", name)
	}
	description = trimOptional(description)
	if description != nil && len([]rune(*description)) > 500 {
		return nil, newValidationError("description", "Field 'description' must be at most 500 characters", "<= 500 characters", len([]rune(*description)))
	}

	db := database.DB.WithContext(ctx)
	var existing models.Category
	err := db.Where("LOWER(name) = ?", strings.ToLower(name)).Take(&existing).Error
	if err == nil {
		return nil, ErrCategoryExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup category: %w", err)
	}

	category := &models.Category{Name: name, Description: description}
	if err := db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	logger.Log.Info("Category created", zap.Uint("category_id", category.ID), zap.String("name", name))
	return category, nil
}
