package models

import "time"

// EventFile references a web URL or an inbox file attached to an event.
// Optional columns are stored as NULL when empty.
type EventFile struct {
	ID          uint      `gorm:"primaryKey"     json:"id"`
	EventID     uint      `gorm:"not null;index" json:"event_id"`
	FileURL     string    `gorm:"not null"       json:"file_url"`
	LocalPath   *string   `json:"local_path"`
	DisplayName *string   `json:"display_name"`
	FileType    *string   `json:"file_type"`
	AddedAt     time.Time `gorm:"not null"       json:"added_at"`
}

func (EventFile) TableName() string {
	return "event_files"
}
