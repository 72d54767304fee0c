package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/domain/ragErrors"
	"github.com/akolanti/docgenie/internal/rag/llm"
	"github.com/akolanti/docgenie/internal/rag/retry"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

/*
The Engine follows the same opaque interface pattern the job services use:
callers hold the Engine interface, the private engine struct owns the index
binding, the turn store and the llm provider, and NewEngine wires them.
Tests swap every dependency for a function-field mock.
*/

type State string

const (
	Uninitialized State = "UNINITIALIZED"
	Ready         State = "READY"
)

type AskStatus string

const (
	Answered AskStatus = "ANSWERED"
	NotReady AskStatus = "NOT_READY"
)

const NotReadyMessage = "No documents have been indexed yet. Upload documents before asking questions."

// Retriever is the read side of a built index.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]commonModels.ScoredChunk, error)
	Len() int
	Close(ctx context.Context) error
}

type AskResult struct {
	Status  AskStatus
	Answer  string
	Turn    commonModels.Turn
	History []commonModels.Turn
}

type Engine interface {
	Bind(ctx context.Context, index Retriever) error
	Ask(ctx context.Context, question string) (AskResult, error)
	State() State
	IndexSize() int
	History(ctx context.Context) ([]commonModels.Turn, error)
	Reset(ctx context.Context) error
	Close(ctx context.Context) error
}

type binding struct {
	index Retriever
}

type engine struct {
	sessionId     string
	llmProvider   llm.Provider
	turns         jobModel.TurnStore
	k             int
	policy        retry.Policy
	historyPolicy string

	// mu serializes asks, binds and resets for one session
	mu      sync.Mutex
	current atomic.Pointer[binding]
	logger  *logger_i.Logger
}

func NewEngine(sessionId string, provider llm.Provider, turns jobModel.TurnStore, cfg *config.Config) Engine {
	return &engine{
		sessionId:     sessionId,
		llmProvider:   provider,
		turns:         turns,
		k:             cfg.Retrieval.K,
		policy:        retry.PolicyFrom(cfg.Capability),
		historyPolicy: cfg.Session.HistoryOnReindex,
		logger:        logger_i.NewLogger("engine").With(config.SESSION_ID_KEY, sessionId),
	}
}

func (e *engine) State() State {
	if e.current.Load() == nil {
		return Uninitialized
	}
	return Ready
}

func (e *engine) IndexSize() int {
	b := e.current.Load()
	if b == nil {
		return 0
	}
	return b.index.Len()
}

// Bind replaces the current index. It waits for an in-flight ask, so an ask
// sees either the old index or the new one, never a mix.
func (e *engine) Bind(ctx context.Context, index Retriever) error {
	if index == nil {
		return errors.New("bind: nil index")
	}
	e.mu.Lock()
	old := e.current.Swap(&binding{index: index})
	var clearErr error
	if e.historyPolicy == config.HistoryDiscard {
		clearErr = e.turns.Clear(ctx, e.sessionId)
	}
	e.mu.Unlock()

	e.logger.WithContext(ctx).Info("index bound", "chunks", index.Len(), "historyPolicy", e.historyPolicy)
	if old != nil {
		if err := old.index.Close(context.WithoutCancel(ctx)); err != nil {
			e.logger.Warn("could not release previous index", "error", err)
		}
	}
	if clearErr != nil {
		return fmt.Errorf("bind: clearing history: %w", clearErr)
	}
	return nil
}

// Ask answers one question. The turn is recorded only after generation
// succeeds; on any failure the history is exactly what it was before.
func (e *engine) Ask(ctx context.Context, question string) (AskResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.logger.WithContext(ctx)
	report(ctx, jobModel.AskInit)

	b := e.current.Load()
	if b == nil {
		log.Debug("ask before any index was bound")
		return AskResult{Status: NotReady, Answer: NotReadyMessage}, nil
	}

	history, err := e.executeHistoryStep(ctx, log)
	if err != nil {
		return AskResult{}, ragErrors.New(ragErrors.RetrievalFailure, "could not load conversation history", err)
	}

	grounding, err := e.executeRetrievalStep(ctx, log, b.index, question)
	if err != nil {
		if ragErrors.KindOf(err) == "" {
			err = ragErrors.New(ragErrors.RetrievalFailure, "retrieval failed", err)
		}
		return AskResult{}, err
	}

	answer, err := e.executeLLMStep(ctx, log, llm.GenerationRequest{
		Question:  question,
		Grounding: grounding,
		History:   history,
	})
	if err != nil {
		return AskResult{}, ragErrors.New(ragErrors.GenerationFailure, "generation capability failed", err)
	}

	turn := commonModels.Turn{
		Question:  question,
		Answer:    answer,
		Retrieved: grounding,
		AskedAt:   time.Now().UTC(),
	}
	if err := e.turns.Append(ctx, e.sessionId, turn); err != nil {
		log.Error("could not record turn", "error", err)
		return AskResult{}, fmt.Errorf("recording turn: %w", err)
	}
	report(ctx, jobModel.Complete)

	return AskResult{
		Status:  Answered,
		Answer:  answer,
		Turn:    turn,
		History: append(history, turn),
	}, nil
}

func (e *engine) History(ctx context.Context) ([]commonModels.Turn, error) {
	return e.turns.Turns(ctx, e.sessionId)
}

// Reset drops the index and the history, returning the engine to UNINITIALIZED.
func (e *engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	old := e.current.Swap(nil)
	err := e.turns.Clear(ctx, e.sessionId)
	e.mu.Unlock()

	if old != nil {
		if cerr := old.index.Close(context.WithoutCancel(ctx)); cerr != nil {
			e.logger.Warn("could not release index on reset", "error", cerr)
		}
	}
	return err
}

// Close releases the bound index but keeps the stored history.
func (e *engine) Close(ctx context.Context) error {
	e.mu.Lock()
	old := e.current.Swap(nil)
	e.mu.Unlock()
	if old == nil {
		return nil
	}
	return old.index.Close(ctx)
}
