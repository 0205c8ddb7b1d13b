package client

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/mwantia/evtrec/internal/agent"
	"github.com/mwantia/evtrec/pkg/log"

	config "github.com/mwantia/evtrec/internal/config/server"
)

// withServices opens the registry and tenant manager for the duration of fn.
// Log output goes to stderr so command output stays parseable.
func withServices(ctx context.Context, fn func(*agent.Services) error) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := log.NewLoggerServiceWithWriter("evtrec", cfg.Log, os.Stderr)

	services, err := agent.OpenServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(ctx); err != nil {
			logger.Warn("Failed to close services: %v", err)
		}
	}()

	return fn(services)
}

func parseID(value string) (uint, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid folder id '%s'", value)
	}
	return uint(id), nil
}
