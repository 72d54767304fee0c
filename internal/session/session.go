package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/rag"
	"github.com/akolanti/docgenie/internal/rag/ingest"
	"github.com/akolanti/docgenie/internal/rag/llm"
	"github.com/akolanti/docgenie/internal/rag/vectorDB"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

// IndexBuilder turns chunks into a queryable index.
type IndexBuilder interface {
	Build(ctx context.Context, chunks []commonModels.Chunk) (*vectorDB.VectorIndex, error)
}

// Dependencies are shared by every session a Manager creates.
type Dependencies struct {
	Config     *config.Config
	Normalizer *ingest.Normalizer
	Builder    IndexBuilder
	LLM        llm.Provider
	Turns      jobModel.TurnStore
}

type BuildReport struct {
	Documents   int           `json:"documents"`
	Supported   int           `json:"supported"`
	Chunks      int           `json:"chunks"`
	Diagnostics []string      `json:"diagnostics,omitempty"`
	Duration    time.Duration `json:"duration"`
	BuiltAt     time.Time     `json:"built_at"`
}

type Info struct {
	Id        string       `json:"id"`
	State     rag.State    `json:"state"`
	Chunks    int          `json:"chunks"`
	CreatedAt time.Time    `json:"created_at"`
	LastBuild *BuildReport `json:"last_build,omitempty"`
}

// Session is one conversation over one document set. Builds run outside the
// engine lock so asks keep answering against the previous index until the
// new one is bound.
type Session struct {
	Id        string
	CreatedAt time.Time

	normalizer *ingest.Normalizer
	chunker    *ingest.Chunker
	builder    IndexBuilder
	engine     rag.Engine

	buildMu   sync.Mutex
	lastBuild atomic.Pointer[BuildReport]
	logger    *logger_i.Logger
}

func New(id string, deps Dependencies) (*Session, error) {
	chunker, err := ingest.NewChunker(deps.Config.Chunking)
	if err != nil {
		return nil, err
	}
	normalizer := deps.Normalizer
	if normalizer == nil {
		normalizer = ingest.NewNormalizer()
	}
	return &Session{
		Id:         id,
		CreatedAt:  time.Now().UTC(),
		normalizer: normalizer,
		chunker:    chunker,
		builder:    deps.Builder,
		engine:     rag.NewEngine(id, deps.LLM, deps.Turns, deps.Config),
		logger:     logger_i.NewLogger("session").With(config.SESSION_ID_KEY, id),
	}, nil
}

func (s *Session) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, config.SESSION_ID_KEY, s.Id)
}

// Build normalizes, chunks and embeds docs, then binds the result. The report
// is returned even on failure so callers can show the diagnostics; a failed
// build leaves the previously bound index in place.
func (s *Session) Build(ctx context.Context, docs []commonModels.Document) (BuildReport, error) {
	ctx = s.context(ctx)
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()
	log := s.logger.WithContext(ctx)
	report := BuildReport{Documents: len(docs)}
	rag.Report(ctx, jobModel.BuildInit)

	rag.Report(ctx, jobModel.NormalizeStep)
	normalized, err := s.normalizer.Normalize(ctx, docs)
	if err != nil {
		return report, err
	}
	report.Supported = normalized.Supported
	report.Diagnostics = normalized.DiagnosticMessages()

	rag.Report(ctx, jobModel.ChunkStep)
	chunks := s.chunker.Split(normalized.Text)
	report.Chunks = len(chunks)

	rag.Report(ctx, jobModel.EmbeddingAPICall)
	index, err := s.builder.Build(ctx, chunks)
	if err != nil {
		log.Error("build failed", "error", err, "chunks", len(chunks))
		return report, err
	}

	rag.Report(ctx, jobModel.BindStep)
	if err := s.engine.Bind(ctx, index); err != nil {
		return report, err
	}

	report.Duration = time.Since(start)
	report.BuiltAt = time.Now().UTC()
	s.lastBuild.Store(&report)
	log.Info("documents indexed", "documents", report.Documents, "supported", report.Supported,
		"chunks", report.Chunks, "took", report.Duration)
	return report, nil
}

func (s *Session) Ask(ctx context.Context, question string) (rag.AskResult, error) {
	return s.engine.Ask(s.context(ctx), question)
}

func (s *Session) Turns(ctx context.Context) ([]commonModels.Turn, error) {
	return s.engine.History(s.context(ctx))
}

// Transcript returns the history as alternating user and assistant messages.
func (s *Session) Transcript(ctx context.Context) ([]commonModels.Message, error) {
	turns, err := s.Turns(ctx)
	if err != nil {
		return nil, err
	}
	return commonModels.Transcript(turns), nil
}

func (s *Session) Ready() bool {
	return s.engine.State() == rag.Ready
}

// Reset returns the session to its initial state: no index, no history.
func (s *Session) Reset(ctx context.Context) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	s.lastBuild.Store(nil)
	return s.engine.Reset(s.context(ctx))
}

func (s *Session) Info() Info {
	return Info{
		Id:        s.Id,
		State:     s.engine.State(),
		Chunks:    s.engine.IndexSize(),
		CreatedAt: s.CreatedAt,
		LastBuild: s.lastBuild.Load(),
	}
}
