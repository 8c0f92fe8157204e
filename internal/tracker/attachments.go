package tracker

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jonathan/resume-tracker/internal/documents"
	"github.com/jonathan/resume-tracker/internal/types"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxAttachmentSize is the largest accepted upload, in bytes.
	MaxAttachmentSize = 10 << 20

	defaultUploadConcurrency = 4
)

// Upload is one file to attach to a job.
type Upload struct {
	Name     string
	MimeType string
	Data     []byte
}

// AddAttachments uploads files concurrently and appends them to the job. If
// any upload fails, files already uploaded in this call are removed and the
// job is left unchanged.
func (s *Service) AddAttachments(ctx context.Context, userID, jobID uuid.UUID, uploads []Upload) (*types.Job, error) {
	if s.files == nil {
		return nil, ErrStorageUnavailable
	}
	if len(uploads) == 0 {
		return nil, &InputError{Field: "files", Message: "at least one file is required"}
	}
	for _, u := range uploads {
		if len(u.Data) == 0 {
			return nil, &InputError{Field: "files", Message: fmt.Sprintf("%s is empty", u.Name)}
		}
		if len(u.Data) > MaxAttachmentSize {
			return nil, &InputError{Field: "files", Message: fmt.Sprintf("%s exceeds %d bytes", u.Name, MaxAttachmentSize)}
		}
	}

	job, err := s.Get(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}

	added := make([]types.JobAttachment, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.uploadConcurrency)
	for i, u := range uploads {
		g.Go(func() error {
			id := uuid.New()
			mimeType := documents.DetectMimeType(u.MimeType, u.Name)
			obj, err := s.files.Upload(gctx, jobID, id, u.Name, mimeType, u.Data)
			if err != nil {
				return err
			}
			added[i] = types.JobAttachment{
				ID:         id,
				Name:       u.Name,
				URL:        obj.URL,
				MimeType:   obj.MimeType,
				Size:       obj.Size,
				UploadedAt: s.now(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(ctx, added)
		return nil, &StoreError{Message: "failed to upload attachments", Cause: err}
	}

	attachments := append(append([]types.JobAttachment{}, job.Attachments...), added...)
	updatedAt := s.now()
	ok, err := s.jobs.UpdateJobAttachments(ctx, userID, jobID, attachments, updatedAt)
	if err != nil {
		s.discard(ctx, added)
		return nil, &StoreError{Message: "failed to save attachments", Cause: err}
	}
	if !ok {
		s.discard(ctx, added)
		return nil, ErrJobNotFound
	}
	job.Attachments = attachments
	job.UpdatedAt = updatedAt
	return job, nil
}

// discard removes uploaded files that never made it onto a job.
func (s *Service) discard(ctx context.Context, attachments []types.JobAttachment) {
	for _, a := range attachments {
		if a.URL == "" {
			continue
		}
		if err := s.files.Delete(context.WithoutCancel(ctx), a.URL); err != nil {
			log.Printf("[tracker] failed to clean up %s: %v", a.URL, err)
		}
	}
}

func findAttachment(job *types.Job, attachmentID uuid.UUID) (int, error) {
	for i, a := range job.Attachments {
		if a.ID == attachmentID {
			return i, nil
		}
	}
	return -1, ErrAttachmentNotFound
}

// RemoveAttachment drops the attachment from the job, then deletes its file.
// A failed file delete is logged; the job no longer references the file.
func (s *Service) RemoveAttachment(ctx context.Context, userID, jobID, attachmentID uuid.UUID) (*types.Job, error) {
	if s.files == nil {
		return nil, ErrStorageUnavailable
	}
	job, err := s.Get(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	idx, err := findAttachment(job, attachmentID)
	if err != nil {
		return nil, err
	}

	removed := job.Attachments[idx]
	attachments := make([]types.JobAttachment, 0, len(job.Attachments)-1)
	attachments = append(attachments, job.Attachments[:idx]...)
	attachments = append(attachments, job.Attachments[idx+1:]...)
	updatedAt := s.now()
	ok, err := s.jobs.UpdateJobAttachments(ctx, userID, jobID, attachments, updatedAt)
	if err != nil {
		return nil, &StoreError{Message: "failed to save attachments", Cause: err}
	}
	if !ok {
		return nil, ErrJobNotFound
	}
	if err := s.files.Delete(context.WithoutCancel(ctx), removed.URL); err != nil {
		log.Printf("[tracker] failed to delete attachment %s of job %s: %v", removed.ID, jobID, err)
	}
	job.Attachments = attachments
	job.UpdatedAt = updatedAt
	return job, nil
}

// AttachmentText downloads an attachment and extracts its plain text.
func (s *Service) AttachmentText(ctx context.Context, userID, jobID, attachmentID uuid.UUID) (string, error) {
	if s.files == nil {
		return "", ErrStorageUnavailable
	}
	job, err := s.Get(ctx, userID, jobID)
	if err != nil {
		return "", err
	}
	idx, err := findAttachment(job, attachmentID)
	if err != nil {
		return "", err
	}
	a := job.Attachments[idx]

	data, err := s.files.Get(ctx, a.URL)
	if err != nil {
		return "", &StoreError{Message: "failed to download attachment", Cause: err}
	}
	return documents.ExtractText(documents.DetectMimeType(a.MimeType, a.Name), data)
}
