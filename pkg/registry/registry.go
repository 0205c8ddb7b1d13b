// Package registry keeps the central index of tenant folders and owns their
// lifecycle on disk.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwantia/evtrec/pkg/db/migrations"
	"github.com/mwantia/evtrec/pkg/db/models"
	"github.com/mwantia/evtrec/pkg/db/store"
	"github.com/mwantia/evtrec/pkg/errs"
	"github.com/mwantia/evtrec/pkg/log"
	"github.com/mwantia/evtrec/pkg/pathsafe"
	"gorm.io/gorm"
)

// maxCreateAttempts bounds how often a lost insert race restarts slug probing.
const maxCreateAttempts = 16

type Registry struct {
	db      *gorm.DB
	baseDir string
	log     log.LoggerService
}

// New migrates the registry schema and prepares baseDir, which becomes the
// parent of every folder created through this registry.
func New(ctx context.Context, database store.Database, baseDir string, logger log.LoggerService) (*Registry, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to create base directory", err)
	}

	resolved, err := pathsafe.Canonical(baseDir)
	if err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to resolve base directory", err)
	}

	db := database.DB()
	if err := migrations.NewMigrator(db, migrations.RegistryMigrations()).Migrate(ctx); err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to migrate registry", err)
	}

	return &Registry{
		db:      db,
		baseDir: resolved,
		log:     logger,
	}, nil
}

// BaseDir returns the resolved base directory holding all folders.
func (r *Registry) BaseDir() string {
	return r.baseDir
}

// ListFolders returns all folders, newest first.
func (r *Registry) ListFolders(ctx context.Context) ([]models.Folder, error) {
	folders := []models.Folder{}
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&folders).Error; err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to list folders", err)
	}
	return folders, nil
}

// GetFolder returns the folder with the given id.
func (r *Registry) GetFolder(ctx context.Context, id uint) (*models.Folder, error) {
	if id == 0 {
		return nil, errs.New(errs.Validation, "folder id must be positive")
	}

	var folder models.Folder
	if err := r.db.WithContext(ctx).First(&folder, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Newf(errs.NotFound, "folder %d not found", id)
		}
		return nil, errs.Wrap(errs.Storage, "failed to load folder", err)
	}
	return &folder, nil
}

// CreateFolder registers a new folder and creates its directory. The slug is
// derived from name; taken slugs get a numeric suffix starting at 2.
func (r *Registry) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.New(errs.Validation, "folder name is required")
	}

	base := pathsafe.Slugify(name)

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		slug, err := r.freeSlug(ctx, base)
		if err != nil {
			return nil, err
		}

		folder := models.Folder{
			Name:        name,
			Slug:        slug,
			StoragePath: pathsafe.JoinSafely(r.baseDir, slug),
		}

		if err := r.db.WithContext(ctx).Create(&folder).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || r.slugRowExists(ctx, slug) {
				r.log.Debug("Slug '%s' was taken concurrently, probing again", slug)
				continue
			}
			return nil, errs.Wrap(errs.Storage, "failed to register folder", err)
		}

		if err := r.createDirectory(&folder); err != nil {
			if derr := r.db.WithContext(ctx).Delete(&models.Folder{}, folder.ID).Error; derr != nil {
				r.log.Error("Failed to remove registry row %d after directory failure: %v", folder.ID, derr)
			}
			return nil, err
		}

		r.log.Info("Created folder '%s' (%d) at '%s'", folder.Slug, folder.ID, folder.StoragePath)
		return &folder, nil
	}

	return nil, errs.Newf(errs.Storage, "failed to allocate a unique slug for '%s'", name)
}

// RemoveFolder deletes the registry entry only. The directory, its files and
// its database stay on disk. Removing an unknown id is not an error.
func (r *Registry) RemoveFolder(ctx context.Context, id uint) error {
	if id == 0 {
		return errs.New(errs.Validation, "folder id must be positive")
	}

	result := r.db.WithContext(ctx).Delete(&models.Folder{}, id)
	if result.Error != nil {
		return errs.Wrap(errs.Storage, "failed to remove folder", result.Error)
	}

	if result.RowsAffected > 0 {
		r.log.Info("Removed folder %d from registry", id)
	}
	return nil
}

// freeSlug returns the first of base, base-2, base-3, ... that neither a
// registry row nor a filesystem entry uses.
func (r *Registry) freeSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		taken, err := r.slugTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func (r *Registry) slugTaken(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Folder{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, errs.Wrap(errs.Storage, "failed to check slug", err)
	}
	if count > 0 {
		return true, nil
	}

	_, err := os.Lstat(pathsafe.JoinSafely(r.baseDir, slug))
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, errs.Wrap(errs.Storage, "failed to check folder path", err)
	}
	return false, nil
}

func (r *Registry) slugRowExists(ctx context.Context, slug string) bool {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Folder{}).Where("slug = ?", slug).Count(&count).Error
	return err == nil && count > 0
}

func (r *Registry) createDirectory(folder *models.Folder) error {
	if filepath.Dir(folder.StoragePath) != r.baseDir {
		return errs.Newf(errs.Safety, "folder path '%s' is not a direct child of the base directory", folder.StoragePath)
	}

	if err := os.Mkdir(folder.StoragePath, 0755); err != nil {
		return errs.Wrap(errs.Storage, "failed to create folder directory", err)
	}

	if !pathsafe.IsContainedWithin(folder.StoragePath, r.baseDir) {
		os.Remove(folder.StoragePath)
		return errs.Newf(errs.Safety, "folder path '%s' escapes the base directory", folder.StoragePath)
	}
	return nil
}
