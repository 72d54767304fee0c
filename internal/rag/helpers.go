package rag

import (
	"context"
	"time"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/metrics"
	"github.com/akolanti/docgenie/internal/rag/llm"
	"github.com/akolanti/docgenie/internal/rag/retry"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

type progressKey struct{}

// WithProgress attaches fn to ctx; the engine and the session call it as a
// request moves through its steps. Workers use it to keep job status current.
func WithProgress(ctx context.Context, fn func(jobModel.InternalStatus)) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

func report(ctx context.Context, step jobModel.InternalStatus) {
	if fn, ok := ctx.Value(progressKey{}).(func(jobModel.InternalStatus)); ok && fn != nil {
		fn(step)
	}
}

// Report is report for callers outside the package.
func Report(ctx context.Context, step jobModel.InternalStatus) {
	report(ctx, step)
}

func logStep(ctx context.Context, step jobModel.InternalStatus, log *logger_i.Logger) {
	report(ctx, step)
	log.Debug("Ask", "Current Status", step)
}

func (e *engine) executeHistoryStep(ctx context.Context, log *logger_i.Logger) ([]commonModels.Turn, error) {
	logStep(ctx, jobModel.HistoryCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("history_load", time.Since(start)) }()

	return e.turns.Turns(ctx, e.sessionId)
}

func (e *engine) executeRetrievalStep(ctx context.Context, log *logger_i.Logger, index Retriever, question string) ([]commonModels.ScoredChunk, error) {
	logStep(ctx, jobModel.RetrievalCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return index.Query(ctx, question, e.k)
}

func (e *engine) executeLLMStep(ctx context.Context, log *logger_i.Logger, req llm.GenerationRequest) (string, error) {
	logStep(ctx, jobModel.LLMCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	var answer string
	err := retry.Do(ctx, e.policy, "generation", func(ctx context.Context) error {
		var err error
		answer, err = e.llmProvider.Generate(ctx, req)
		return err
	})
	return answer, err
}
