package store

import (
	"context"
	"errors"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

// Open picks redis or in-memory stores. When redis is enabled but offline it
// falls back to memory if the config allows it and fails otherwise.
func Open(ctx context.Context, cfg config.RedisConfig) (jobModel.JobStore, jobModel.TurnStore, error) {
	logger := logger_i.NewLogger("stores")
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory stores")
		return InitInMemoryJobStore(), InitInMemoryTurnStore(), nil
	}

	jobs := GetRedisJobStore(ctx, cfg)
	turns := GetRedisTurnStore(ctx, cfg)
	if jobs != nil && turns != nil {
		return jobs, turns, nil
	}

	if !cfg.FallbackToMemory {
		return nil, nil, errors.New("redis stores are offline")
	}
	logger.Error("Redis stores are offline, falling back to in-memory stores")
	return InitInMemoryJobStore(), InitInMemoryTurnStore(), nil
}
