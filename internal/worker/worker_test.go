package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/job"
	"github.com/akolanti/docgenie/internal/rag"
)

// MockRunner tracks executed jobs
type MockRunner struct {
	ProcessedCount int32
	OnRun          func(ctx context.Context, j jobModel.Job) jobModel.Job
}

func (m *MockRunner) Run(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ProcessedCount, 1)
	if m.OnRun != nil {
		return m.OnRun(ctx, j)
	}
	return j
}

type MockJobStore struct {
	mu        sync.Mutex
	saved     []jobModel.Job
	OnSaveJob func(ctx context.Context, job jobModel.Job) error
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].Id == jobId {
			return m.saved[i], true
		}
	}
	return jobModel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	m.saved = append(m.saved, j)
	m.mu.Unlock()
	if m.OnSaveJob != nil {
		return m.OnSaveJob(ctx, j)
	}
	return nil
}

func (m *MockJobStore) Saved() []jobModel.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]jobModel.Job(nil), m.saved...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorkerPool_Flow(t *testing.T) {
	store := &MockJobStore{}
	jobSvc := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          store,
	})
	runner := &MockRunner{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	atomic.StoreInt64(&currentWorkerCount, 0)
	InitServices(jobSvc, runner)
	InitWorkerPool(stopChan, wg)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true
		waitFor(t, func() bool { return atomic.LoadInt64(&currentWorkerCount) >= 2 })
	})

	t.Run("Worker processes a submitted job", func(t *testing.T) {
		submitted, err := jobSvc.Submit(context.Background(), jobModel.Job{Id: "test-1", JobType: jobModel.JobTypeAsk})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if submitted.Status != jobModel.JobStatusQueued || submitted.CurrentStep != jobModel.AskInit {
			t.Errorf("Unexpected queued job %+v", submitted)
		}

		waitFor(t, func() bool {
			j, ok := store.GetJob(context.Background(), "test-1")
			return ok && j.Status == jobModel.JobStatusComplete
		})
		if atomic.LoadInt32(&runner.ProcessedCount) != 1 {
			t.Errorf("Expected 1 job processed, got %d", runner.ProcessedCount)
		}
		j, _ := store.GetJob(context.Background(), "test-1")
		if j.EndTime.IsZero() || j.CurrentStep != jobModel.Complete {
			t.Errorf("Expected a finished job, got %+v", j)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestExecuteJob_SavesProgressAndOutcome(t *testing.T) {
	store := &MockJobStore{}
	runner := &MockRunner{OnRun: func(ctx context.Context, j jobModel.Job) jobModel.Job {
		rag.Report(ctx, jobModel.RetrievalCall)
		rag.Report(ctx, jobModel.LLMCall)
		if _, ok := ctx.Deadline(); !ok {
			t.Error("Expected the job to run with a deadline")
		}
		j.Status = jobModel.JobStatusNotReady
		j.CurrentStep = jobModel.Complete
		return j
	}}
	InitServices(job.InitJobService(job.ServiceConfig{JobStore: store}), runner)

	executeJob(jobModel.Job{Id: "j1", SessionId: "s1", JobType: jobModel.JobTypeAsk})

	saved := store.Saved()
	want := []struct {
		status jobModel.JobStatus
		step   jobModel.InternalStatus
	}{
		{jobModel.JobStatusRunning, ""},
		{jobModel.JobStatusRunning, jobModel.RetrievalCall},
		{jobModel.JobStatusRunning, jobModel.LLMCall},
		{jobModel.JobStatusNotReady, jobModel.Complete},
	}
	if len(saved) != len(want) {
		t.Fatalf("Expected %d saves, got %d: %+v", len(want), len(saved), saved)
	}
	for i, w := range want {
		if saved[i].Status != w.status || saved[i].CurrentStep != w.step {
			t.Errorf("save %d = %s/%s; want %s/%s", i, saved[i].Status, saved[i].CurrentStep, w.status, w.step)
		}
	}
}

func TestWorker_IdleTimeout(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 0)
	idleTimeout = 20 * time.Millisecond
	t.Cleanup(func() {
		atomic.StoreInt64(&minWorkerCount, 1)
	})

	InitServices(job.InitJobService(job.ServiceConfig{JobChannel: make(chan jobModel.Job)}), &MockRunner{})
	workerWaitGroup = &sync.WaitGroup{}
	stopWorkerChannel = make(chan bool)

	createWorker()
	waitFor(t, func() bool { return atomic.LoadInt64(&currentWorkerCount) == 0 })
}
