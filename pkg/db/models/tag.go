package models

import "time"

// Tag is a free-form label within one tenant folder. NameNorm is the
// lowercased, whitespace-collapsed form used for uniqueness.
type Tag struct {
	ID        uint      `gorm:"primaryKey"              json:"id"`
	Name      string    `gorm:"not null"                json:"name"`
	NameNorm  string    `gorm:"not null;uniqueIndex"    json:"name_norm"`
	CreatedAt time.Time `gorm:"not null"                json:"created_at"`
}

func (Tag) TableName() string {
	return "tags"
}
