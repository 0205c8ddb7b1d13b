package store

import (
	"context"

	"gorm.io/gorm"
)

// Database is an opened, pooled GORM connection
type Database interface {
	// Lifecycle
	Health(ctx context.Context) error
	Close() error

	DB() *gorm.DB
	Driver() string
}
