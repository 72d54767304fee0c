package session

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/domain/ragErrors"
	"github.com/akolanti/docgenie/internal/rag"
	"github.com/akolanti/docgenie/internal/rag/ingest"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

// Runner executes queued build and ask jobs against the manager's sessions.
type Runner struct {
	manager *Manager
	logger  *logger_i.Logger
}

func NewRunner(manager *Manager) *Runner {
	return &Runner{manager: manager, logger: logger_i.NewLogger("JobRunner")}
}

// Run returns job with its final status, payload and error filled in.
func (r *Runner) Run(ctx context.Context, job jobModel.Job) jobModel.Job {
	ctx = context.WithValue(ctx, config.SESSION_ID_KEY, job.SessionId)
	switch job.JobType {
	case jobModel.JobTypeBuild:
		return r.runBuild(ctx, job)
	case jobModel.JobTypeAsk:
		return r.runAsk(ctx, job)
	default:
		return jobError(job, errors.New("unknown job type "+string(job.JobType)))
	}
}

func (r *Runner) runBuild(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := r.logger.WithContext(ctx).With("jobId", job.Id)
	defer removeUploads(job.JobPayload.Documents, log)

	s, err := r.manager.Lookup(job.SessionId)
	if err != nil {
		return jobError(job, err)
	}

	docs := make([]commonModels.Document, 0, len(job.JobPayload.Documents))
	var unreadable []string
	for _, ref := range job.JobPayload.Documents {
		doc, err := ingest.LoadDocument(ref.Path, ref.Name, ref.Format)
		if err != nil {
			log.Warn("could not read upload", "document", ref.Name, "error", err)
			unreadable = append(unreadable, ref.Name+": "+err.Error())
			continue
		}
		docs = append(docs, doc)
	}

	report, err := s.Build(ctx, docs)
	job.JobPayload.ChunkCount = report.Chunks
	job.JobPayload.Diagnostics = append(unreadable, report.Diagnostics...)
	if err != nil {
		return jobError(job, err)
	}
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	return job
}

func (r *Runner) runAsk(ctx context.Context, job jobModel.Job) jobModel.Job {
	s, err := r.manager.Lookup(job.SessionId)
	if err != nil {
		return jobError(job, err)
	}

	result, err := s.Ask(ctx, job.JobPayload.Question)
	if err != nil {
		return jobError(job, err)
	}

	job.JobPayload.Answer = result.Answer
	if result.Status == rag.NotReady {
		job.Status = jobModel.JobStatusNotReady
		job.CurrentStep = jobModel.Complete
		return job
	}
	job.JobPayload.Sources = commonModels.Sources(result.Turn.Retrieved)
	job.JobPayload.Turns = len(result.History)
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	return job
}

func jobError(job jobModel.Job, err error) jobModel.Job {
	code := ragErrors.HTTPStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "Internal Server Error"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		code = http.StatusGatewayTimeout
		message = "job timed out"
	}
	job.Error = jobModel.JobError{
		Code:    code,
		Kind:    string(ragErrors.KindOf(err)),
		Message: message,
		Retry:   ragErrors.Transient(err) || code == http.StatusGatewayTimeout,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	job.EndTime = time.Now()
	return job
}

func removeUploads(refs []jobModel.DocumentRef, log *logger_i.Logger) {
	for _, ref := range refs {
		if ref.Path == "" {
			continue
		}
		if err := os.Remove(ref.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("could not remove upload", "path", ref.Path, "error", err)
		}
	}
}
