package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/docgenie/internal/adapter"
	"github.com/akolanti/docgenie/internal/api"
	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/go-chi/chi/v5"
)

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// CreateSessionHandler godoc
// @Summary      Create a session
// @Description  Creates an empty session. It answers NOT_READY until documents are indexed.
// @Tags         Sessions
// @Produce      json
// @Success      201  {object}  api.SessionResponse
// @Router       /sessions [post]
func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Create()
	if err != nil {
		writeRagError(w, "", err)
		return
	}
	h.logger.WithContext(r.Context()).Info("session created", config.SESSION_ID_KEY, s.Id)
	writeJsonResponse(w, http.StatusCreated, adapter.ToSessionResponse(s.Info()))
}

// ListSessionsHandler godoc
// @Summary      List sessions
// @Tags         Sessions
// @Produce      json
// @Success      200  {object}  api.SessionListResponse
// @Router       /sessions [get]
func (h *Handler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, adapter.ToSessionList(h.manager.List()))
}

// GetSessionHandler godoc
// @Summary      Get a session
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  api.SessionResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /sessions/{id} [get]
func (h *Handler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.manager.Lookup(id)
	if err != nil {
		writeRagError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSessionResponse(s.Info()))
}

// DeleteSessionHandler godoc
// @Summary      Delete a session
// @Description  Drops the session's index and history and forgets the session.
// @Tags         Sessions
// @Param        id   path      string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  api.JobResponse
// @Router       /sessions/{id} [delete]
func (h *Handler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.manager.Delete(r.Context(), id); err != nil {
		writeRagError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetSessionHandler godoc
// @Summary      Reset a session
// @Description  Returns the session to UNINITIALIZED with an empty history. The id stays valid.
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  api.SessionResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /sessions/{id}/reset [post]
func (h *Handler) ResetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.manager.Lookup(id)
	if err != nil {
		writeRagError(w, id, err)
		return
	}
	if err := s.Reset(r.Context()); err != nil {
		writeRagError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSessionResponse(s.Info()))
}

// GetHistoryHandler godoc
// @Summary      Conversation history
// @Description  Returns the session transcript as alternating user and assistant messages.
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  api.HistoryResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /sessions/{id}/history [get]
func (h *Handler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.manager.Lookup(id)
	if err != nil {
		writeRagError(w, id, err)
		return
	}
	messages, err := s.Transcript(r.Context())
	if err != nil {
		writeRagError(w, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToHistoryResponse(id, messages))
}

// ChatHandler godoc
// @Summary      Ask a question
// @Description  Queues an ask job against the session's index. An empty session_id creates a new session.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest      true  "Question and optional session id"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data"
// @Failure      404      {object}  api.JobResponse      "Unknown session"
// @Router       /chat [post]
func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithContext(r.Context())
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			log.Error("Couldn't close the chat request body", "err", err)
		}
	}(r.Body)

	var requestData api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		log.Warn("Bad chat request", "err", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	if err := h.validate.Struct(requestData); err != nil {
		log.Warn("Invalid chat request", "err", err)
		WriteErrorResponse(w, http.StatusBadRequest, requestData.SessionId, "message is required")
		return
	}

	sessionId := requestData.SessionId
	if sessionId == "" {
		s, err := h.manager.Create()
		if err != nil {
			writeRagError(w, "", err)
			return
		}
		sessionId = s.Id
		log.Debug("New chat session", config.SESSION_ID_KEY, sessionId)
	} else if _, err := h.manager.Lookup(sessionId); err != nil {
		writeRagError(w, sessionId, err)
		return
	}

	newJob, err := h.createNewJob(r.Context(), newJobData{
		sessionId: sessionId,
		traceId:   traceIdFrom(r.Context()),
		jobType:   jobModel.JobTypeAsk,
		question:  requestData.Message,
	})
	if err != nil {
		writeRagError(w, sessionId, err)
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id, sessionId))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a build or ask job.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Current status of the job"
// @Failure      404  {object}  api.JobResponse   "Job not found"
// @Router       /status/{id} [get]
func (h *Handler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, isFound := h.jobs.Status(r.Context(), id)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, id, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// PostDocumentsHandler godoc
// @Summary      Index documents into a session
// @Description  Receives one or more PDF or DOCX files and queues a build job. Files in other formats are skipped and reported in the job diagnostics. The new index replaces the previous one when the build completes.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        id         path      string  true  "Session ID"
// @Param        documents  formData  file    true  "PDF or DOCX files"
// @Success      202  {object}  api.InitJobResponse "Accepted - returns job id"
// @Failure      400  {object}  api.JobResponse "Missing files or upload too large"
// @Failure      404  {object}  api.JobResponse "Unknown session"
// @Failure      500  {object}  api.JobResponse "Storage error"
// @Router       /sessions/{id}/documents [post]
func (h *Handler) PostDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithContext(r.Context())
	sessionId := chi.URLParam(r, "id")
	if _, err := h.manager.Lookup(sessionId); err != nil {
		writeRagError(w, sessionId, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, "File too large or bad request")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn("could not remove multipart temp files", "err", err)
		}
	}()

	files := append(r.MultipartForm.File["documents"], r.MultipartForm.File["document"]...)
	if len(files) == 0 {
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, "at least one document is required")
		return
	}

	targetDir, err := GetTargetDirectory(h.uploadRoot)
	if err != nil {
		log.Error("Couldn't get target directory", "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, sessionId, "Storage error")
		return
	}

	refs := make([]jobModel.DocumentRef, 0, len(files))
	for _, fh := range files {
		ref, err := saveUpload(targetDir, fh)
		if err != nil {
			log.Error("could not store upload", "document", fh.Filename, "err", err)
			removeRefs(refs)
			WriteErrorResponse(w, http.StatusInternalServerError, sessionId, "Storage error")
			return
		}
		refs = append(refs, ref)
	}

	newJob, err := h.createNewJob(r.Context(), newJobData{
		sessionId: sessionId,
		traceId:   traceIdFrom(r.Context()),
		jobType:   jobModel.JobTypeBuild,
		documents: refs,
	})
	if err != nil {
		removeRefs(refs)
		writeRagError(w, sessionId, err)
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id, sessionId))
}

func saveUpload(targetDir string, fh *multipart.FileHeader) (jobModel.DocumentRef, error) {
	src, err := fh.Open()
	if err != nil {
		return jobModel.DocumentRef{}, err
	}
	defer src.Close()

	name := filepath.Base(fh.Filename)
	path := filepath.Join(targetDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), name))
	dst, err := os.Create(path)
	if err != nil {
		return jobModel.DocumentRef{}, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return jobModel.DocumentRef{}, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return jobModel.DocumentRef{}, err
	}
	return jobModel.DocumentRef{
		Name:   name,
		Path:   path,
		Format: commonModels.ResolveDocType(fh.Header.Get("Content-Type"), name),
	}, nil
}

func removeRefs(refs []jobModel.DocumentRef) {
	for _, ref := range refs {
		_ = os.Remove(ref.Path)
	}
}
