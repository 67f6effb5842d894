package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Email       string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	DisplayName *string   `gorm:"size:100" json:"display_name"`
	Password    string    `gorm:"not null" json:"-"`
	Role        string    `gorm:"size:20;not null;default:'user'" json:"role"`
	Version     int       `gorm:"default:1" json:"version"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserPreferences holds per-user display and notification settings.
type UserPreferences struct {
	ID                   uint      `gorm:"primarykey" json:"id"`
	UserID               uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Theme                string    `gorm:"size:20;not null" json:"theme"`
	EmailNotifications   bool      `gorm:"not null" json:"email_notifications"`
	FlagNotifications    bool      `gorm:"not null" json:"flag_notifications"`
	PreferredModel       *string   `gorm:"size:100" json:"preferred_model"`
	CopyWithPlaceholders bool      `gorm:"not null" json:"copy_with_placeholders"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (UserPreferences) TableName() string {
	return "user_preferences"
}

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// DefaultPreferences returns the settings a user starts with.
func DefaultPreferences(userID uint) UserPreferences {
	return UserPreferences{
		UserID:             userID,
		Theme:              ThemeSystem,
		EmailNotifications: true,
		FlagNotifications:  true,
	}
}
