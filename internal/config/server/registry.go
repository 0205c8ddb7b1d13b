package server

const (
	RegistrySQLite   = "sqlite"
	RegistryMySQL    = "mysql"
	RegistryPostgres = "postgres"
)

// RegistryServerConfig holds the folder registry store configuration
type RegistryServerConfig struct {
	Type   string               `mapstructure:"type"   yaml:"type"`
	SQLite RegistrySQLiteConfig `mapstructure:"sqlite" yaml:"sqlite"`
	DSN    string               `mapstructure:"dsn"    yaml:"dsn"`
}

// RegistrySQLiteConfig holds SQLite-specific configuration
type RegistrySQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}
