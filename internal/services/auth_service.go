package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nmang004/atlas-sub000/internal/database"
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/internal/utils"
	"github.com/nmang004/atlas-sub000/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrUserAlreadyExists = errors.New("user with this email already exists")

// RegisterUser creates an account. The first account on an empty database
// becomes an admin.
func RegisterUser(ctx context.Context, email, password string, displayName *string) (*models.User, error) {
	email = normalizeEmail(email)
	db := database.DB.WithContext(ctx)

	var existingUser models.User
	result := db.Where("email = ?", email).First(&existingUser)
	if result.Error == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", result.Error)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	role := models.RoleUser
	if userCount == 0 {
		role = models.RoleAdmin
	}

	user := &models.User{
		Email:       email,
		DisplayName: trimOptional(displayName),
		Password:    string(hashedPassword),
		Role:        role,
		Version:     1,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("role", role))
	return user, nil
}

// LoginUser checks credentials and issues a token.
func LoginUser(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	err := database.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	return token, &user, nil
}

// LogoutToken denylists a token for the rest of its lifetime.
func LogoutToken(ctx context.Context, tokenString string) error {
	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		return ErrUnauthenticated
	}

	expiration := time.Minute
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if remaining := time.Until(exp.Time); remaining > 0 {
			expiration = remaining
		}
	}
	return AddToDenylist(ctx, tokenString, expiration)
}

// CreateAdmin creates an admin account, or promotes the existing account
// with that email and resets its password.
func CreateAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{Email: email, Password: string(hashedPassword), Role: models.RoleAdmin, Version: 1}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&user).Updates(map[string]interface{}{
			"password": string(hashedPassword),
			"role":     models.RoleAdmin,
			"version":  user.Version + 1,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	invalidateUserCache(ctx, user.ID)
	logger.Log.Info("Admin account ready", zap.Uint("user_id", user.ID))
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
