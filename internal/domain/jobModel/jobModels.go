package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusNotReady JobStatus = "NOT_READY"
	JobStatusError    JobStatus = "Error"

	AskInit          InternalStatus = "Init"
	RetrievalCall    InternalStatus = "Retrieval"
	LLMCall          InternalStatus = "LLM"
	HistoryCall      InternalStatus = "History"
	BuildInit        InternalStatus = "BuildInit"
	NormalizeStep    InternalStatus = "Normalize"
	ChunkStep        InternalStatus = "Chunk"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"
	BindStep         InternalStatus = "Bind"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeAsk   JobType = "Ask"
	JobTypeBuild JobType = "Build"
)

type Job struct {
	Id          string         `json:"id"`
	SessionId   string         `json:"session_id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type DocumentRef struct {
	Name   string               `json:"name"`
	Path   string               `json:"path"`
	Format commonModels.DocType `json:"format"`
}

type JobPayload struct {
	Question string   `json:"question,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Sources  []string `json:"sources,omitempty"`
	Turns    int      `json:"turns,omitempty"`

	Documents   []DocumentRef `json:"documents,omitempty"`
	ChunkCount  int           `json:"chunk_count,omitempty"`
	Diagnostics []string      `json:"diagnostics,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// TurnStore keeps the ordered turn history of each session. Append must be
// all-or-nothing for a single turn.
type TurnStore interface {
	Append(ctx context.Context, sessionId string, turn commonModels.Turn) error
	Turns(ctx context.Context, sessionId string) ([]commonModels.Turn, error)
	Clear(ctx context.Context, sessionId string) error
}
