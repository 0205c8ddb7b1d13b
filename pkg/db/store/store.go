package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config selects the driver and connection parameters. For sqlite, DSN is
// the database file path.
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	Logger       logger.Interface
}

// GormStore implements Database on top of a GORM connection
type GormStore struct {
	db     *gorm.DB
	driver string
}

var _ Database = (*GormStore)(nil)

// Open connects to the configured database and verifies it with a ping
func Open(ctx context.Context, cfg Config) (*GormStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%s dsn is required", cfg.Driver)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		cfg.Driver = DriverSQLite
		dialector = sqliteDialector(cfg.DSN)
		// SQLite only supports 1 writer
		cfg.MaxOpenConns = 1
	case DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", cfg.Driver)
	}

	// Default to silent logging
	if cfg.Logger == nil {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         cfg.Logger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}

	return &GormStore{
		db:     db,
		driver: cfg.Driver,
	}, nil
}

// DB returns the underlying GORM database instance
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Driver() string {
	return s.driver
}

// Health checks database connectivity
func (s *GormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
