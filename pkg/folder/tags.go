package folder

import (
	"context"
	"strings"

	"github.com/mwantia/evtrec/pkg/db/models"
	"github.com/mwantia/evtrec/pkg/errs"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NormalizeTagName lowercases name and collapses whitespace runs into one space.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ListTags returns all tags ordered by their normalized name.
func (e *Engine) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := e.db.WithContext(ctx).Order("name_norm ASC").Find(&tags).Error; err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to list tags", err)
	}
	return tags, nil
}

// CreateTag returns the tag matching name, creating it if needed. An existing
// tag keeps the spelling it was first created with.
func (e *Engine) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	return findOrCreateTag(e.db.WithContext(ctx), name)
}

func findOrCreateTag(tx *gorm.DB, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.New(errs.Validation, "tag name is required")
	}

	tag := models.Tag{
		Name:     name,
		NameNorm: NormalizeTagName(name),
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_norm"}},
		DoNothing: true,
	}).Create(&tag).Error
	if err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to create tag", err)
	}

	var stored models.Tag
	if err := tx.Where("name_norm = ?", tag.NameNorm).First(&stored).Error; err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to load tag", err)
	}
	return &stored, nil
}
