package rag_test

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/rag/llm"
)

// MockRetriever implements rag.Retriever
type MockRetriever struct {
	OnQuery func(ctx context.Context, text string, k int) ([]commonModels.ScoredChunk, error)
	Size    int
	closed  atomic.Int32
}

func (m *MockRetriever) Query(ctx context.Context, text string, k int) ([]commonModels.ScoredChunk, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, text, k)
	}
	return []commonModels.ScoredChunk{{Chunk: commonModels.Chunk{Text: "default context"}, Score: 1}}, nil
}

func (m *MockRetriever) Len() int { return m.Size }

func (m *MockRetriever) Close(ctx context.Context) error {
	m.closed.Add(1)
	return nil
}

func (m *MockRetriever) Closed() int { return int(m.closed.Load()) }

type MockLLM struct {
	OnGenerate func(ctx context.Context, req llm.GenerationRequest) (string, error)
	calls      atomic.Int32
}

func (m *MockLLM) Name() string { return "mock" }

func (m *MockLLM) Generate(ctx context.Context, req llm.GenerationRequest) (string, error) {
	m.calls.Add(1)
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, req)
	}
	return "mock answer", nil
}

func (m *MockLLM) Calls() int { return int(m.calls.Load()) }

// MockTurnStore wraps a real store and can fail on demand.
type MockTurnStore struct {
	Inner interface {
		Append(ctx context.Context, sessionId string, turn commonModels.Turn) error
		Turns(ctx context.Context, sessionId string) ([]commonModels.Turn, error)
		Clear(ctx context.Context, sessionId string) error
	}
	FailAppend bool
}

var errStoreDown = errors.New("store down")

func (m *MockTurnStore) Append(ctx context.Context, sessionId string, turn commonModels.Turn) error {
	if m.FailAppend {
		return errStoreDown
	}
	return m.Inner.Append(ctx, sessionId, turn)
}

func (m *MockTurnStore) Turns(ctx context.Context, sessionId string) ([]commonModels.Turn, error) {
	return m.Inner.Turns(ctx, sessionId)
}

func (m *MockTurnStore) Clear(ctx context.Context, sessionId string) error {
	return m.Inner.Clear(ctx, sessionId)
}
