package job

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/metrics"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	logger            *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		logger:            logger_i.NewLogger("JobService"),
	}
}

// Submit records job as QUEUED and hands it to the worker pool. The send on
// JobChannel blocks once the buffer is full so a burst of requests cannot
// overwhelm the workers.
func (s *Service) Submit(ctx context.Context, job jobModel.Job) (jobModel.Job, error) {
	log := s.logger.WithContext(ctx).With("jobId", job.Id, "jobType", job.JobType)

	job.Status = jobModel.JobStatusQueued
	if job.CreatedTime.IsZero() {
		job.CreatedTime = time.Now()
	}
	if job.CurrentStep == "" {
		job.CurrentStep = initialStep(job.JobType)
	}
	if err := s.JobStore.SaveJob(ctx, job); err != nil {
		log.Error("could not save queued job", "err", err)
		return job, err
	}

	metrics.IncrementJobsInQueue()
	select {
	case s.JobChannel <- job:
	case <-ctx.Done():
		metrics.DecrementJobsInQueue()
		return job, ctx.Err()
	}
	log.Info("Created new job")

	//a new worker every RequestsPerNewWorkerCount requests, and for every build
	//since embedding a corpus keeps a worker busy for a while.
	//idle workers retire on their own so this stays cheap
	count := atomic.AddInt64(&s.RequestCount, 1)
	if count%config.RequestsPerNewWorkerCount == 0 || job.JobType == jobModel.JobTypeBuild {
		metrics.StartDispatcherSignalCount()
		select {
		case s.DispatcherChannel <- true:
		default:
			log.Debug("dispatcher busy, skipping worker signal", "requestCount", count)
		}
	}
	return job, nil
}

func (s *Service) Status(ctx context.Context, id string) (jobModel.Job, bool) {
	if id == "" {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, id)
}

func initialStep(t jobModel.JobType) jobModel.InternalStatus {
	if t == jobModel.JobTypeBuild {
		return jobModel.BuildInit
	}
	return jobModel.AskInit
}
