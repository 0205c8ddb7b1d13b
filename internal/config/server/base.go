package server

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

type BaseServerConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log      LogServerConfig      `mapstructure:"log"      yaml:"log"`
	Http     HttpServerConfig     `mapstructure:"http"     yaml:"http"`
	Storage  StorageServerConfig  `mapstructure:"storage"  yaml:"storage"`
	Registry RegistryServerConfig `mapstructure:"registry" yaml:"registry"`
}

func LoadServerConfig() (*BaseServerConfig, error) {
	cfg := &BaseServerConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that would otherwise only fail on first use.
func (cfg *BaseServerConfig) Validate() error {
	if cfg.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir must not be empty")
	}
	if cfg.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("storage.max_upload_bytes must be positive")
	}
	if _, err := cfg.Storage.Location(); err != nil {
		return fmt.Errorf("storage.timezone: %w", err)
	}

	switch cfg.Registry.Type {
	case RegistrySQLite:
		if cfg.Registry.SQLite.Path == "" {
			cfg.Registry.SQLite.Path = filepath.Join(cfg.Storage.BaseDir, "registry.sqlite")
		}
	case RegistryMySQL, RegistryPostgres:
		if cfg.Registry.DSN == "" {
			return fmt.Errorf("registry.dsn is required for registry type '%s'", cfg.Registry.Type)
		}
	default:
		return fmt.Errorf("unsupported registry type '%s'", cfg.Registry.Type)
	}

	return nil
}
