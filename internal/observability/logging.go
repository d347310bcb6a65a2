// Package observability provides logging utilities for the duel tools.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/duel/internal/config"
)

// NewLogger creates a structured logger for service from the given logging configuration.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger named service, or a non-nil error.
func NewLogger(service string, cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	if service != "" {
		logger = logger.Named(service)
	}
	return logger, nil
}

// BattleLogger returns logger scoped to one battle: every entry carries the
// battle ID and both combatant IDs.
func BattleLogger(logger *zap.Logger, battleID, attackerID, defenderID string) *zap.Logger {
	return logger.With(
		zap.String("battle_id", battleID),
		zap.String("attacker_id", attackerID),
		zap.String("defender_id", defenderID),
	)
}
