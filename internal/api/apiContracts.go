package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	SessionId string            `json:"session_id" example:"6a0c3f5e-0d6b-4b55-9d5e-2c1f0e3b7a10"`
	JobType   string            `json:"job_type,omitempty" example:"Ask"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Kind    string `json:"kind,omitempty" example:"NOT_READY"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RAGResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
	Turns    int      `json:"turns"`
}

type BuildResponse struct {
	ChunkCount  int      `json:"chunk_count"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

type Result struct {
	Status              string         `json:"status"`
	Step                string         `json:"step,omitempty"`
	RAGExternalResponse *RAGResponse   `json:"rag_response,omitempty"`
	Build               *BuildResponse `json:"build,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	SessionId string `json:"session_id"`
	StatusURL string `json:"status_url"`
}

type SessionResponse struct {
	Id        string     `json:"id"`
	State     string     `json:"state" example:"READY"`
	Chunks    int        `json:"chunks"`
	CreatedAt time.Time  `json:"created_at"`
	LastBuild *BuildInfo `json:"last_build,omitempty"`
}

type BuildInfo struct {
	Documents   int       `json:"documents"`
	Supported   int       `json:"supported"`
	Chunks      int       `json:"chunks"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	BuiltAt     time.Time `json:"built_at"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type HistoryMessage struct {
	Role string `json:"role" example:"user"`
	Text string `json:"text"`
}

type HistoryResponse struct {
	SessionId string           `json:"session_id"`
	Turns     int              `json:"turns"`
	Messages  []HistoryMessage `json:"messages"`
}

// requests---------------------

type ChatRequest struct {
	Message   string `json:"message" validate:"required,max=8000"`
	SessionId string `json:"session_id,omitempty" validate:"omitempty,max=128"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}
