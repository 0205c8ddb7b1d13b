// Package folder implements the per-tenant storage engine: one SQLite
// database with events, tags and file links, plus an inbox directory of
// uploaded files, all confined to the folder's storage path.
package folder

import (
	"context"
	"fmt"
	"os"
	"time"

	config "github.com/mwantia/evtrec/internal/config/server"
	"github.com/mwantia/evtrec/pkg/db/migrations"
	"github.com/mwantia/evtrec/pkg/db/models"
	"github.com/mwantia/evtrec/pkg/db/store"
	"github.com/mwantia/evtrec/pkg/errs"
	"github.com/mwantia/evtrec/pkg/log"
	"github.com/mwantia/evtrec/pkg/pathsafe"
	"gorm.io/gorm"
)

// Config carries the storage settings an Engine needs.
type Config struct {
	BaseDir        string
	AppSubdir      string
	FilesSubdir    string
	DBFilename     string
	MaxUploadBytes int64
	Location       *time.Location

	Logger   log.LoggerService
	LogLevel string
}

// NewConfig derives an engine configuration from the storage settings.
func NewConfig(cfg config.StorageServerConfig, logger log.LoggerService, logLevel string) (Config, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Config{}, fmt.Errorf("invalid timezone '%s': %w", cfg.Timezone, err)
	}

	return Config{
		BaseDir:        cfg.BaseDir,
		AppSubdir:      cfg.AppSubdir,
		FilesSubdir:    cfg.FilesSubdir,
		DBFilename:     cfg.DBFilename,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Location:       loc,
		Logger:         logger,
		LogLevel:       logLevel,
	}, nil
}

type Engine struct {
	folder   models.Folder
	cfg      Config
	root     string
	appDir   string
	filesDir string

	store *store.GormStore
	db    *gorm.DB
	log   log.LoggerService
}

// Open performs the one-time initialization of a folder: it verifies the
// storage path lies inside the base directory, creates the metadata and
// files directories, opens the folder database and applies its migrations.
func Open(ctx context.Context, folder models.Folder, cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	if !pathsafe.IsContainedWithin(folder.StoragePath, cfg.BaseDir) {
		return nil, errs.Newf(errs.Safety, "folder '%s' is not inside the base directory", folder.Slug)
	}

	root, err := pathsafe.Canonical(folder.StoragePath)
	if err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to resolve folder path", err)
	}

	e := &Engine{
		folder:   folder,
		cfg:      cfg,
		root:     root,
		appDir:   pathsafe.JoinSafely(root, cfg.AppSubdir),
		filesDir: pathsafe.JoinSafely(root, cfg.FilesSubdir),
		log:      cfg.Logger.Named(folder.Slug),
	}

	for _, dir := range []string{e.appDir, e.filesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errs.Wrap(errs.Storage, "failed to create folder directory", err)
		}
		if !pathsafe.IsContainedWithin(dir, root) {
			return nil, errs.Newf(errs.Safety, "directory '%s' escapes folder '%s'", dir, folder.Slug)
		}
	}

	e.store, err = store.Open(ctx, store.Config{
		Driver: store.DriverSQLite,
		DSN:    pathsafe.JoinSafely(e.appDir, cfg.DBFilename),
		Logger: log.NewGormLogger(e.log.Named("db"), cfg.LogLevel),
	})
	if err != nil {
		return nil, errs.Wrap(errs.Storage, "failed to open folder database", err)
	}
	e.db = e.store.DB()

	if err := migrations.NewMigrator(e.db, migrations.FolderMigrations()).Migrate(ctx); err != nil {
		e.store.Close()
		return nil, errs.Wrap(errs.Storage, "failed to migrate folder database", err)
	}

	e.log.Debug("Opened folder database in '%s'", e.appDir)
	return e, nil
}

// Folder returns the registry entry this engine was opened for.
func (e *Engine) Folder() models.Folder {
	return e.folder
}

// FilesDir returns the resolved inbox directory.
func (e *Engine) FilesDir() string {
	return e.filesDir
}

// Health pings the folder database.
func (e *Engine) Health(ctx context.Context) error {
	return e.store.Health(ctx)
}

// Close releases the database handle.
func (e *Engine) Close() error {
	return e.store.Close()
}

func (e *Engine) now() time.Time {
	return time.Now().In(e.cfg.Location)
}
