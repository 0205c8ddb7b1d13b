package models

import "time"

// Folder is a tenant workspace tracked by the central registry
type Folder struct {
	ID          uint      `gorm:"primaryKey"                           json:"id"`
	Name        string    `gorm:"type:varchar(255);not null"           json:"name"`
	Slug        string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"slug"`
	StoragePath string    `gorm:"type:varchar(1024);not null"          json:"storage_path"`
	CreatedAt   time.Time `gorm:"not null"                             json:"created_at"`
}

func (Folder) TableName() string {
	return "folders"
}
