package handlers

import (
	"context"
	"time"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/job"
	"github.com/akolanti/docgenie/internal/session"
	"github.com/akolanti/docgenie/pkg/logger_i"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Handler serves the HTTP api. Sessions live in the manager; builds and asks
// are queued on the job service and picked up by the worker pool. Uploads are
// written below uploadRoot, the working directory when empty.
type Handler struct {
	manager    *session.Manager
	jobs       *job.Service
	uploadRoot string
	validate   *validator.Validate
	logger     *logger_i.Logger
}

func NewHandler(manager *session.Manager, jobs *job.Service, uploadRoot string) *Handler {
	return &Handler{
		manager:    manager,
		jobs:       jobs,
		uploadRoot: uploadRoot,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger_i.NewLogger("RequestHandler"),
	}
}

// newJobData is what a request contributes to a job; the rest is filled in here.
type newJobData struct {
	sessionId string
	traceId   string
	jobType   jobModel.JobType
	question  string
	documents []jobModel.DocumentRef
}

func (h *Handler) createNewJob(ctx context.Context, data newJobData) (jobModel.Job, error) {
	newJob := jobModel.Job{
		Id:          uuid.NewString(),
		SessionId:   data.sessionId,
		TraceId:     data.traceId,
		JobType:     data.jobType,
		CreatedTime: time.Now(),
	}
	newJob.JobPayload.Question = data.question
	newJob.JobPayload.Documents = data.documents

	h.logger.WithContext(ctx).Info("To create new job", "jobId", newJob.Id, "jobType", newJob.JobType)
	return h.jobs.Submit(ctx, newJob)
}

func traceIdFrom(ctx context.Context) string {
	if v, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok {
		return v
	}
	return ""
}
