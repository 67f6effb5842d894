package database

import (
	"github.com/nmang004/atlas-sub000/internal/models"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserPreferences{},
		&models.Category{},
		&models.Prompt{},
		&models.PromptVariable{},
		&models.PromptVariant{},
		&models.PromptExample{},
		&models.PromptVote{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
