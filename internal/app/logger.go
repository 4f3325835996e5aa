package app

import (
	"fmt"

	"go.uber.org/zap"
)

// initLogger создает логгер с уровнем из конфигурации (debug, info, warn,
// error). Уровень debug дополнительно включает development-режим с
// человекочитаемым выводом.
func initLogger(logLevel string) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level %q: %w", logLevel, err)
	}

	cfg := zap.NewProductionConfig()
	if level.Level() == zap.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	return logger, nil
}
