package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/metrics"
	"github.com/akolanti/docgenie/internal/rag"
)

func executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx = context.WithValue(ctx, config.SESSION_ID_KEY, job.SessionId)
	log := logger.WithContext(ctx).With("jobId", job.Id)
	log.Debug("Processing job", "jobType", job.JobType)

	job.Status = jobModel.JobStatusRunning
	saveJobState(ctx, job)

	running := job
	ctx = rag.WithProgress(ctx, func(step jobModel.InternalStatus) {
		if step == jobModel.Complete {
			return
		}
		running.CurrentStep = step
		saveJobState(ctx, running)
	})

	runCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	job = _runner.Run(runCtx, job)
	cancel()

	if job.Status == jobModel.JobStatusRunning || job.Status == jobModel.JobStatusQueued {
		job.Status = jobModel.JobStatusComplete
		job.CurrentStep = jobModel.Complete
	}
	if job.EndTime.IsZero() {
		job.EndTime = time.Now()
	}
	if job.Status == jobModel.JobStatusError {
		log.Warn("job failed", "kind", job.Error.Kind, "message", job.Error.Message)
	}
	saveJobState(ctx, job)
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	count := atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", count)
	metrics.DecrementActiveWorkerCount()
}

func saveJobState(ctx context.Context, job jobModel.Job) {
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.WithContext(ctx).Error("Failed to update job state", "jobId", job.Id, "err", err)
	}
}
