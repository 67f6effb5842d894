package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nmang004/atlas-sub000/internal/database"
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")
var ErrOptimisticLock = errors.New("data has been modified by another user, please refresh and try again")

const userCacheDuration = time.Hour

func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func FindUserByID(ctx context.Context, userID uint) (models.User, error) {
	cacheKey := userCacheKey(userID)
	if database.RedisClient != nil {
		val, err := database.RedisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var user models.User
			if err := json.Unmarshal([]byte(val), &user); err == nil {
				return user, nil
			}
		}
	}

	var user models.User
	if err := database.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, err
	}

	if database.RedisClient != nil {
		if data, err := json.Marshal(user); err == nil {
			database.RedisClient.Set(ctx, cacheKey, data, userCacheDuration)
		}
	}

	return user, nil
}

// FindUsers retrieves a paginated list of users, oldest first.
func FindUsers(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	page, limit = normalizePage(page, limit)
	var users []models.User
	var total int64

	db := database.DB.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// UpdateUser applies updates guarded by the version the caller last saw.
// A zero expectedVersion skips the check against the caller's copy but the
// write is still conditional on the row not changing underneath it.
func UpdateUser(ctx context.Context, id uint, updates map[string]interface{}, expectedVersion int, operator uint) (*models.User, error) {
	var user models.User
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		currentVersion := user.Version
		if expectedVersion != 0 && expectedVersion != currentVersion {
			return ErrOptimisticLock
		}
		updates["version"] = currentVersion + 1

		result := tx.Model(&models.User{}).Where("id = ? AND version = ?", id, currentVersion).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOptimisticLock
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return nil, err
	}

	invalidateUserCache(ctx, id)

	fields := make([]string, 0, len(updates))
	for k := range updates {
		fields = append(fields, k)
	}
	logger.Log.Info("User updated", zap.Uint("user_id", id), zap.Uint("operator_id", operator), zap.Strings("fields", fields))

	return &user, nil
}

// UpdateProfile changes the caller's own display name. A nil or blank name
// clears it.
func UpdateProfile(ctx context.Context, userID uint, displayName *string) (*models.User, error) {
	return UpdateUser(ctx, userID, map[string]interface{}{"display_name": trimOptional(displayName)}, 0, userID)
}

func invalidateUserCache(ctx context.Context, id uint) {
	if database.RedisClient == nil {
		return
	}
	if err := database.RedisClient.Del(ctx, userCacheKey(id)).Err(); err != nil {
		logger.Log.Warn("Failed to invalidate user cache", zap.Uint("user_id", id), zap.Error(err))
	}
}
