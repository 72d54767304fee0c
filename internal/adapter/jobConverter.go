package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/docgenie/internal/api"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/session"
)

func ToInitJobResponse(id string, sessionId string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		SessionId: sessionId,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Kind:    job.Error.Kind,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status: string(job.Status),
		Step:   string(job.CurrentStep),
	}
	switch job.JobType {
	case jobModel.JobTypeBuild:
		result.Build = toBuildResponse(job)
	default:
		result.RAGExternalResponse = ToRAGExternalStatus(job.JobPayload)
	}

	return api.JobResponse{
		Id:        job.Id,
		SessionId: job.SessionId,
		JobType:   string(job.JobType),
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" && len(ragData.Sources) == 0 {
		return nil
	}
	return &api.RAGResponse{
		Question: ragData.Question,
		Answer:   ragData.Answer,
		Sources:  ragData.Sources,
		Turns:    ragData.Turns,
	}
}

func toBuildResponse(job jobModel.Job) *api.BuildResponse {
	if job.Status != jobModel.JobStatusComplete && len(job.JobPayload.Diagnostics) == 0 {
		return nil
	}
	return &api.BuildResponse{
		ChunkCount:  job.JobPayload.ChunkCount,
		Diagnostics: job.JobPayload.Diagnostics,
	}
}

func ToSessionResponse(info session.Info) api.SessionResponse {
	res := api.SessionResponse{
		Id:        info.Id,
		State:     string(info.State),
		Chunks:    info.Chunks,
		CreatedAt: info.CreatedAt,
	}
	if b := info.LastBuild; b != nil {
		res.LastBuild = &api.BuildInfo{
			Documents:   b.Documents,
			Supported:   b.Supported,
			Chunks:      b.Chunks,
			Diagnostics: b.Diagnostics,
			DurationMs:  b.Duration.Milliseconds(),
			BuiltAt:     b.BuiltAt,
		}
	}
	return res
}

func ToSessionList(infos []session.Info) api.SessionListResponse {
	out := api.SessionListResponse{Sessions: make([]api.SessionResponse, 0, len(infos))}
	for _, info := range infos {
		out.Sessions = append(out.Sessions, ToSessionResponse(info))
	}
	return out
}

func ToHistoryResponse(sessionId string, messages []commonModels.Message) api.HistoryResponse {
	out := api.HistoryResponse{
		SessionId: sessionId,
		Turns:     len(messages) / 2,
		Messages:  make([]api.HistoryMessage, 0, len(messages)),
	}
	for _, m := range messages {
		out.Messages = append(out.Messages, api.HistoryMessage{Role: string(m.Role), Text: m.Text})
	}
	return out
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
