package session_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/data/store"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/domain/ragErrors"
	"github.com/akolanti/docgenie/internal/rag"
	"github.com/akolanti/docgenie/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/docgenie/internal/rag/ingest"
	"github.com/akolanti/docgenie/internal/rag/llm/extractive"
	"github.com/akolanti/docgenie/internal/rag/vectorDB"
	"github.com/akolanti/docgenie/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/docgenie/internal/session"
)

// plain text stands in for pdf so tests do not need binary fixtures
func textNormalizer() *ingest.Normalizer {
	return ingest.NewNormalizerWith(map[commonModels.DocType]ingest.Extractor{
		commonModels.PDF: func(ctx context.Context, content []byte) (string, error) {
			return string(content), nil
		},
	})
}

func testDeps(t *testing.T) session.Dependencies {
	t.Helper()
	cfg := config.Default()
	cfg.Capability.RetryBaseDelay = time.Millisecond
	cfg.Capability.RetryMaxDelay = time.Millisecond
	return session.Dependencies{
		Config:     cfg,
		Normalizer: textNormalizer(),
		Builder:    vectorDB.NewBuilder(hashEmbedding.NewHashEmbedder(128), memoryDB.NewBackend(), cfg),
		LLM:        extractive.NewExtractiveProvider(cfg.LLM),
		Turns:      store.InitInMemoryTurnStore(),
	}
}

func pdfDoc(name, text string) commonModels.Document {
	return commonModels.Document{Name: name, Format: commonModels.PDF, Content: []byte(text)}
}

const warranty = "The warranty covers manufacturing defects for two years.\nShipping is free within the country."

func TestSession_BuildThenAsk(t *testing.T) {
	s, err := session.New("s1", testDeps(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Ready() {
		t.Fatal("Expected a new session not to be ready")
	}

	report, err := s.Build(context.Background(), []commonModels.Document{
		pdfDoc("manual.pdf", warranty),
		{Name: "notes.txt", Format: commonModels.Unsupported, Content: []byte("ignored")},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if report.Documents != 2 || report.Supported != 1 || report.Chunks != 1 {
		t.Errorf("Unexpected report %+v", report)
	}
	if len(report.Diagnostics) != 1 {
		t.Errorf("Expected one diagnostic for the txt file, got %v", report.Diagnostics)
	}
	if !s.Ready() || s.Info().Chunks != 1 || s.Info().LastBuild == nil {
		t.Errorf("Unexpected info after build %+v", s.Info())
	}

	res, err := s.Ask(context.Background(), "How long does the warranty cover defects?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Status != rag.Answered || res.Answer == "" || res.Answer == extractive.NoAnswer {
		t.Errorf("Expected a grounded answer, got %+v", res)
	}

	transcript, _ := s.Transcript(context.Background())
	if len(transcript) != 2 || transcript[0].Role != commonModels.RoleUser || transcript[1].Role != commonModels.RoleAssistant {
		t.Errorf("Unexpected transcript %+v", transcript)
	}
}

func TestSession_EmptyCorpus(t *testing.T) {
	s, _ := session.New("s1", testDeps(t))

	report, err := s.Build(context.Background(), []commonModels.Document{
		{Name: "a.txt", Format: commonModels.Unsupported},
	})
	if !errors.Is(err, ragErrors.ErrEmptyCorpus) {
		t.Fatalf("Expected EmptyCorpus, got %v", err)
	}
	if len(report.Diagnostics) != 1 {
		t.Errorf("Expected the diagnostic to be reported, got %v", report.Diagnostics)
	}
	if s.Ready() {
		t.Error("Expected the session to stay not ready")
	}
}

func TestSession_FailedRebuildKeepsIndex(t *testing.T) {
	s, _ := session.New("s1", testDeps(t))
	if _, err := s.Build(context.Background(), []commonModels.Document{pdfDoc("a.pdf", warranty)}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if _, err := s.Build(context.Background(), nil); err == nil {
		t.Fatal("Expected the empty rebuild to fail")
	}
	if !s.Ready() || s.Info().Chunks != 1 {
		t.Error("Expected the previous index to stay bound")
	}
}

func TestSession_Reset(t *testing.T) {
	s, _ := session.New("s1", testDeps(t))
	_, _ = s.Build(context.Background(), []commonModels.Document{pdfDoc("a.pdf", warranty)})
	_, _ = s.Ask(context.Background(), "shipping?")

	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	turns, _ := s.Turns(context.Background())
	if s.Ready() || len(turns) != 0 || s.Info().LastBuild != nil {
		t.Errorf("Expected a fresh session, got %+v with %d turns", s.Info(), len(turns))
	}
}

func TestNew_RejectsBadChunking(t *testing.T) {
	deps := testDeps(t)
	deps.Config.Chunking.Overlap = deps.Config.Chunking.MaxSize
	if _, err := session.New("s1", deps); err == nil {
		t.Error("Expected overlap >= max to be rejected")
	}
}

func TestManager(t *testing.T) {
	m := session.NewManager(testDeps(t))

	a, err := m.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	b, _ := m.CreateWithId("fixed")
	again, _ := m.CreateWithId("fixed")
	if b != again {
		t.Error("Expected CreateWithId to return the existing session")
	}

	if _, err := m.Lookup("missing"); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
	if got, _ := m.Lookup(a.Id); got != a {
		t.Error("Expected Lookup to find the created session")
	}

	infos := m.List()
	if len(infos) != 2 || infos[0].Id != a.Id || infos[1].Id != "fixed" {
		t.Errorf("Unexpected list %+v", infos)
	}

	if err := m.Delete(context.Background(), a.Id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := m.Get(a.Id); ok {
		t.Error("Expected the session to be gone")
	}
	if err := m.Delete(context.Background(), a.Id); !errors.Is(err, ragErrors.ErrNotFound) {
		t.Errorf("Expected NotFound on second delete, got %v", err)
	}
}

func writeUpload(t *testing.T, name, content string) jobModel.DocumentRef {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return jobModel.DocumentRef{Name: name, Path: path, Format: commonModels.PDF}
}

func TestRunner(t *testing.T) {
	m := session.NewManager(testDeps(t))
	runner := session.NewRunner(m)
	s, _ := m.Create()

	ask := jobModel.Job{Id: "j1", SessionId: s.Id, JobType: jobModel.JobTypeAsk,
		JobPayload: jobModel.JobPayload{Question: "warranty?"}}
	got := runner.Run(context.Background(), ask)
	if got.Status != jobModel.JobStatusNotReady || got.JobPayload.Answer != rag.NotReadyMessage {
		t.Errorf("Expected NOT_READY before any build, got %+v", got)
	}

	ref := writeUpload(t, "manual.pdf", warranty)
	build := jobModel.Job{Id: "j2", SessionId: s.Id, JobType: jobModel.JobTypeBuild,
		JobPayload: jobModel.JobPayload{Documents: []jobModel.DocumentRef{ref,
			{Name: "gone.pdf", Path: filepath.Join(t.TempDir(), "gone.pdf"), Format: commonModels.PDF}}}}
	got = runner.Run(context.Background(), build)
	if got.Status != jobModel.JobStatusComplete || got.JobPayload.ChunkCount != 1 {
		t.Fatalf("Unexpected build result %+v", got)
	}
	if len(got.JobPayload.Diagnostics) != 1 {
		t.Errorf("Expected the missing upload to be reported, got %v", got.JobPayload.Diagnostics)
	}
	if _, err := os.Stat(ref.Path); !os.IsNotExist(err) {
		t.Error("Expected the upload to be removed after the build")
	}

	got = runner.Run(context.Background(), ask)
	if got.Status != jobModel.JobStatusComplete || got.JobPayload.Turns != 1 || len(got.JobPayload.Sources) != 1 {
		t.Errorf("Unexpected ask result %+v", got)
	}
}

func TestRunner_Errors(t *testing.T) {
	m := session.NewManager(testDeps(t))
	runner := session.NewRunner(m)
	s, _ := m.Create()

	tests := []struct {
		name     string
		job      jobModel.Job
		wantCode int
		wantKind ragErrors.Kind
	}{
		{
			name:     "unknown session",
			job:      jobModel.Job{SessionId: "missing", JobType: jobModel.JobTypeAsk},
			wantCode: http.StatusNotFound,
			wantKind: ragErrors.NotFound,
		},
		{
			name:     "empty corpus",
			job:      jobModel.Job{SessionId: s.Id, JobType: jobModel.JobTypeBuild},
			wantCode: http.StatusUnprocessableEntity,
			wantKind: ragErrors.EmptyCorpus,
		},
		{
			name:     "unknown job type",
			job:      jobModel.Job{SessionId: s.Id, JobType: "other"},
			wantCode: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runner.Run(context.Background(), tt.job)
			if got.Status != jobModel.JobStatusError || got.CurrentStep != jobModel.Error {
				t.Errorf("Expected an error status, got %s/%s", got.Status, got.CurrentStep)
			}
			if got.Error.Code != tt.wantCode || got.Error.Kind != string(tt.wantKind) {
				t.Errorf("Unexpected error %+v", got.Error)
			}
		})
	}
}
