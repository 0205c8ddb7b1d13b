package folder

import (
	"context"
	"strings"

	"github.com/mwantia/evtrec/pkg/db/models"
	"github.com/mwantia/evtrec/pkg/errs"
	"gorm.io/gorm/clause"
)

// FileLink describes a file reference attached to an event.
type FileLink struct {
	FileURL     string
	LocalPath   string
	DisplayName string
	FileType    string
}

// LinkFile attaches a file reference to an event. Linking the same URL to the
// same event twice is a no-op.
func (e *Engine) LinkFile(ctx context.Context, eventID uint, link FileLink) error {
	fileURL := strings.TrimSpace(link.FileURL)
	if fileURL == "" {
		return errs.New(errs.Validation, "file_url is required")
	}

	db := e.db.WithContext(ctx)
	if _, err := e.findEvent(db, eventID); err != nil {
		return err
	}

	file := models.EventFile{
		EventID:     eventID,
		FileURL:     fileURL,
		LocalPath:   nullable(link.LocalPath),
		DisplayName: nullable(link.DisplayName),
		FileType:    nullable(link.FileType),
		AddedAt:     e.now(),
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "file_url"}},
		DoNothing: true,
	}).Create(&file).Error
	if err != nil {
		return errs.Wrap(errs.Storage, "failed to link file", err)
	}
	return nil
}

// RemoveEventFile deletes a file link. Unknown ids are ignored.
func (e *Engine) RemoveEventFile(ctx context.Context, id uint) error {
	if id == 0 {
		return errs.New(errs.Validation, "event file id must be positive")
	}

	if err := e.db.WithContext(ctx).Delete(&models.EventFile{}, id).Error; err != nil {
		return errs.Wrap(errs.Storage, "failed to remove event file", err)
	}
	return nil
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
