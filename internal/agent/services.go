package agent

import (
	"context"
	"errors"
	"fmt"

	config "github.com/mwantia/evtrec/internal/config/server"
	"github.com/mwantia/evtrec/pkg/db/store"
	"github.com/mwantia/evtrec/pkg/folder"
	"github.com/mwantia/evtrec/pkg/log"
	"github.com/mwantia/evtrec/pkg/registry"
	"github.com/mwantia/evtrec/pkg/tenant"
)

// Services bundles the storage layer shared by the server and the CLI.
type Services struct {
	Store    *store.GormStore
	Registry *registry.Registry
	Manager  *tenant.Manager
}

// OpenServices connects the registry database and prepares the tenant manager.
func OpenServices(ctx context.Context, cfg *config.BaseServerConfig, logger log.LoggerService) (*Services, error) {
	driver, dsn := registryDSN(cfg.Registry)

	s, err := store.Open(ctx, store.Config{
		Driver: driver,
		DSN:    dsn,
		Logger: log.NewGormLogger(logger.Named("registry/db"), cfg.Log.DatabaseLevel()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open registry store: %w", err)
	}

	reg, err := registry.New(ctx, s, cfg.Storage.BaseDir, logger.Named("registry"))
	if err != nil {
		s.Close()
		return nil, err
	}

	folderCfg, err := folder.NewConfig(cfg.Storage, logger.Named("folder"), cfg.Log.DatabaseLevel())
	if err != nil {
		s.Close()
		return nil, err
	}
	folderCfg.BaseDir = reg.BaseDir()

	return &Services{
		Store:    s,
		Registry: reg,
		Manager:  tenant.NewManager(reg, folderCfg, logger.Named("tenant")),
	}, nil
}

// Close releases every cached folder engine and the registry connection.
func (s *Services) Close(ctx context.Context) error {
	return errors.Join(
		s.Manager.Cleanup(ctx),
		s.Store.Close(),
	)
}

func registryDSN(cfg config.RegistryServerConfig) (string, string) {
	switch cfg.Type {
	case config.RegistryMySQL:
		return store.DriverMySQL, cfg.DSN
	case config.RegistryPostgres:
		return store.DriverPostgres, cfg.DSN
	default:
		return store.DriverSQLite, cfg.SQLite.Path
	}
}
