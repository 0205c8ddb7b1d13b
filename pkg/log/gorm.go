package log

import (
	"time"

	"gorm.io/gorm/logger"
)

// gormWriter forwards GORM's printf-style output into a LoggerService.
type gormWriter struct {
	log   LoggerService
	level LogLevel
}

func (w gormWriter) Printf(format string, args ...any) {
	if w.level == Debug {
		w.log.Debug(format, args...)
		return
	}
	w.log.Warn(format, args...)
}

// NewGormLogger returns a GORM logger writing through the given service.
// Statement traces are only emitted when level is debug; otherwise only slow
// queries and errors are forwarded.
func NewGormLogger(log LoggerService, level string) logger.Interface {
	parsed := Parse(level)

	return logger.New(gormWriter{log: log, level: parsed}, logger.Config{
		SlowThreshold:             2 * time.Second,
		LogLevel:                  toGormLogLevel(parsed),
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func toGormLogLevel(level LogLevel) logger.LogLevel {
	switch level {
	case Debug:
		return logger.Info
	case Info, Warn:
		return logger.Warn
	case Error:
		return logger.Error
	default:
		return logger.Silent
	}
}
