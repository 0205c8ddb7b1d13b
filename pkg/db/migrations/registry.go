package migrations

import (
	"github.com/mwantia/evtrec/pkg/db/models"
	"gorm.io/gorm"
)

// RegistryMigrations returns the schema history of the folder registry.
// It only uses AutoMigrate so the same set runs on sqlite, mysql and postgres.
func RegistryMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create folders table",
			Up: func(db *gorm.DB) error {
				return db.AutoMigrate(&models.Folder{})
			},
			Down: func(db *gorm.DB) error {
				return db.Migrator().DropTable(&models.Folder{})
			},
		},
	}
}
