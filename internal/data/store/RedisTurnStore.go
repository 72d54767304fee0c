package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/data/redisStore"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

const turnKeyPrefix = "turns:"

// RedisTurnStore keeps each session's turns as a redis list of json rows.
type RedisTurnStore struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logger_i.Logger
}

// GetRedisTurnStore returns nil when redis is unreachable.
func GetRedisTurnStore(ctx context.Context, cfg config.RedisConfig) *RedisTurnStore {
	s := redisStore.GetRedisStore(ctx, cfg, config.RedisTurnStore)
	if s == nil {
		return nil
	}
	return NewRedisTurnStore(s, cfg.TurnTTL)
}

func NewRedisTurnStore(store *redisStore.Store, ttl time.Duration) *RedisTurnStore {
	return &RedisTurnStore{
		store:  store,
		ttl:    ttl,
		logger: logger_i.NewLogger("TurnStore"),
	}
}

func (s *RedisTurnStore) Append(ctx context.Context, sessionId string, turn commonModels.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	if err := s.store.ListPush(ctx, turnKeyPrefix+sessionId, data, s.ttl); err != nil {
		s.logger.WithContext(ctx).Error("error saving turn", "error:", err)
		return err
	}
	return nil
}

func (s *RedisTurnStore) Turns(ctx context.Context, sessionId string) ([]commonModels.Turn, error) {
	rows, err := s.store.ListGetAll(ctx, turnKeyPrefix+sessionId)
	if err != nil && !s.store.IsNil(err) {
		s.logger.WithContext(ctx).Error("Error getting history", "error:", err)
		return nil, err
	}

	turns := make([]commonModels.Turn, 0, len(rows))
	for i, row := range rows {
		var t commonModels.Turn
		if err := json.Unmarshal([]byte(row), &t); err != nil {
			return nil, fmt.Errorf("turn %d of session %s: %w", i, sessionId, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *RedisTurnStore) Clear(ctx context.Context, sessionId string) error {
	return s.store.Del(ctx, turnKeyPrefix+sessionId)
}
