package models

import "time"

// Event is a dated record within one tenant folder
type Event struct {
	ID          uint      `gorm:"primaryKey"         json:"id"`
	EventDate   string    `gorm:"not null;index"     json:"event_date"`
	Name        string    `gorm:"not null"           json:"name"`
	Description string    `gorm:"not null;default:''" json:"description"`
	Remark      string    `gorm:"not null;default:''" json:"remark"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Computed by listing queries
	FileCount int64 `gorm:"->;-:migration" json:"file_count"`

	Tags []Tag `gorm:"-" json:"tags"`
}

func (Event) TableName() string {
	return "events"
}

// EventTag links an event to a tag
type EventTag struct {
	EventID uint `gorm:"primaryKey"`
	TagID   uint `gorm:"primaryKey"`
}

func (EventTag) TableName() string {
	return "event_tags"
}
