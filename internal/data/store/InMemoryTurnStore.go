package store

import (
	"context"
	"sync"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
)

type InMemoryTurnStore struct {
	turnLock *sync.RWMutex
	turnMap  map[string][]commonModels.Turn
}

func InitInMemoryTurnStore() *InMemoryTurnStore {
	return &InMemoryTurnStore{
		turnLock: new(sync.RWMutex),
		turnMap:  make(map[string][]commonModels.Turn),
	}
}

func (store *InMemoryTurnStore) Append(ctx context.Context, sessionId string, turn commonModels.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	store.turnLock.Lock()
	defer store.turnLock.Unlock()
	store.turnMap[sessionId] = append(store.turnMap[sessionId], turn)
	return nil
}

// Turns returns a copy; callers may append to it freely.
func (store *InMemoryTurnStore) Turns(ctx context.Context, sessionId string) ([]commonModels.Turn, error) {
	store.turnLock.RLock()
	defer store.turnLock.RUnlock()
	turns := store.turnMap[sessionId]
	out := make([]commonModels.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (store *InMemoryTurnStore) Clear(ctx context.Context, sessionId string) error {
	store.turnLock.Lock()
	defer store.turnLock.Unlock()
	delete(store.turnMap, sessionId)
	return nil
}
