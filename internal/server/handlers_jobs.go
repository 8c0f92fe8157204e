package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/jonathan/resume-tracker/internal/keywords"
	"github.com/jonathan/resume-tracker/internal/matching"
	"github.com/jonathan/resume-tracker/internal/tracker"
	"github.com/jonathan/resume-tracker/internal/types"
)

const (
	// maxAttachmentsPerRequest bounds one multipart upload.
	maxAttachmentsPerRequest = 5
	multipartMemory          = 32 << 20
)

// statusRequest is the body of PUT /v1/jobs/{id}/status.
type statusRequest struct {
	Status types.JobStatus `json:"status" validate:"required"`
}

// handleListJobs handles GET /v1/jobs?q=
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	userID, _, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	results, err := s.jobs.List(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, results)
}

// handleCreateJob handles POST /v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	userID, _, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in tracker.JobInput
	if err := decodeAndValidate(w, r, &in); err != nil {
		s.failure(w, r, err)
		return
	}
	job, err := s.jobs.Create(r.Context(), userID, in)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, job)
}

// handleGetJob handles GET /v1/jobs/{id}
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	userID, _, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	jobID, err := pathUUID(r, "id")
	if err != nil {
		s.failure(w, r, err)
		return
	}
	job, err := s.jobs.Get(r.Context(), userID, jobID)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// handleUpdateJob handles PUT /v1/jobs/{id}
func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	userID, _, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	jobID, err := pathUUID(r, "id")
	if err != nil {
		s.failure(w, r, err)
		return
	}
	var in tracker.JobInput
	if err := decodeAndValidate(w, r, &in); err != nil {
		s.failure(w, r, err)
		return
	}
	job, err := s.jobs.Update(r.Context(), userID, jobID, in)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// handleDeleteJob handles DELETE /v1/jobs/{id}
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	userID, _, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	jobID, err := pathUUID(r, "id")
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if err := s.jobs.Delete(r.Context(), userID, jobID); err != nil {
		s.failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetJobStatus handles PUT /v1/jobs/{id}/status
func (s *Server) handleSetJobStatus(w http.ResponseWriter, r *http.Request) {
	userID, _, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	jobID, err := pathUUID(r, "id")
	if err != nil {
		s.failure(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	job, err := s.jobs.SetStatus(r.Context(), userID, jobID, req.Status)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// handleAddAttachments handles POST /v1/jobs/{id}/attachments. Files are sent
// as multipart form parts named "files" (or a single "file").
func (s *Server) handleAddAttachments(w http.ResponseWriter, r *http.Request) {
	userID, _, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	jobID, err := pathUUID(r, "id")
	if err != nil {
		s.failure(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentsPerRequest*tracker.MaxAttachmentSize+(1<<20))
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "upload exceeds the request size limit")
			return
		}
		s.failure(w, r, &ErrValidation{Field: "files", Message: "expected a multipart form"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := append(append([]*multipart.FileHeader{}, r.MultipartForm.File["files"]...), r.MultipartForm.File["file"]...)
	if len(headers) > maxAttachmentsPerRequest {
		s.failure(w, r, &ErrValidation{Field: "files", Message: fmt.Sprintf("at most %d files per request", maxAttachmentsPerRequest)})
		return
	}
	uploads := make([]tracker.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > tracker.MaxAttachmentSize {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("%s exceeds %d bytes", fh.Filename, tracker.MaxAttachmentSize))
			return
		}
		data, err := readPart(fh)
		if err != nil {
			s.failure(w, r, err)
			return
		}
		uploads = append(uploads, tracker.Upload{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	job, err := s.jobs.AddAttachments(r.Context(), userID, jobID, uploads)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, job)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, tracker.MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

// handleRemoveAttachment handles DELETE /v1/jobs/{id}/attachments/{attachment_id}
func (s *Server) handleRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	userID, _, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	jobID, err := pathUUID(r, "id")
	if err != nil {
		s.failure(w, r, err)
		return
	}
	attachmentID, err := pathUUID(r, "attachment_id")
	if err != nil {
		s.failure(w, r, err)
		return
	}
	job, err := s.jobs.RemoveAttachment(r.Context(), userID, jobID, attachmentID)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// handleAnalyzeAttachment handles POST /v1/jobs/{id}/attachments/{attachment_id}/analyze,
// running an attached job description through the keyword analysis.
func (s *Server) handleAnalyzeAttachment(w http.ResponseWriter, r *http.Request) {
	userID, email, err := s.identity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	jobID, err := pathUUID(r, "id")
	if err != nil {
		s.failure(w, r, err)
		return
	}
	attachmentID, err := pathUUID(r, "attachment_id")
	if err != nil {
		s.failure(w, r, err)
		return
	}

	text, err := s.jobs.AttachmentText(r.Context(), userID, jobID, attachmentID)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	text = keywords.NormalizeDescription(text)
	profile, err := s.profiles.Load(r.Context(), userID, email)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, AnalysisResponse{
		SkillMatch: matching.Analyze(keywords.Extract(text), profile, text),
	})
}
