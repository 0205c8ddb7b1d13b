package log

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/mwantia/fabric/pkg/container"
)

// LoggerTagProcessor handles fabric:"logger" and fabric:"logger:<name>" tags
// for automatic logger injection with optional named loggers.
//
// Supported tag formats:
//   - `fabric:"logger"` - Injects the base logger service
//   - `fabric:"logger:<name>"` - Injects a named logger (e.g., logger.Named("registry"))
type LoggerTagProcessor struct{}

// NewLoggerTagProcessor creates a new LoggerTagProcessor instance.
func NewLoggerTagProcessor() *LoggerTagProcessor {
	return &LoggerTagProcessor{}
}

// GetPriority returns the processing priority for this processor.
// It runs before the default inject processor (priority 0).
func (ltp *LoggerTagProcessor) GetPriority() int {
	return 50
}

// CanProcess reports whether value is "logger" or "logger:<name>", case-insensitive.
func (ltp *LoggerTagProcessor) CanProcess(value string) bool {
	return strings.EqualFold(value, "logger") || strings.HasPrefix(strings.ToLower(value), "logger:")
}

// Process resolves the logger for a tagged struct field.
func (ltp *LoggerTagProcessor) Process(ctx context.Context, sc *container.ServiceContainer, field reflect.StructField, value string) (any, error) {
	logger, err := ResolveNamed(ctx, sc, loggerName(value))
	if err != nil {
		return nil, fmt.Errorf("field '%s': %w", field.Name, err)
	}
	return logger, nil
}

// ResolveNamed resolves the registered LoggerService from sc and, when name
// is not empty, returns logger.Named(name).
func ResolveNamed(ctx context.Context, sc *container.ServiceContainer, name string) (LoggerService, error) {
	ok, resolved := sc.ResolveByType(ctx, reflect.TypeOf((*LoggerService)(nil)).Elem())
	if !ok {
		return nil, fmt.Errorf("failed to resolve LoggerService: no logger service registered")
	}

	baseLogger, ok := resolved.(LoggerService)
	if !ok {
		return nil, fmt.Errorf("resolved logger is not a LoggerService")
	}

	if name != "" {
		return baseLogger.Named(name), nil
	}
	return baseLogger, nil
}

func loggerName(value string) string {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
