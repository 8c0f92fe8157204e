// Package tracker manages tracked job applications and their attachments.
package tracker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-tracker/internal/events"
	"github.com/jonathan/resume-tracker/internal/search"
	"github.com/jonathan/resume-tracker/internal/storage"
	"github.com/jonathan/resume-tracker/internal/types"
)

// JobStore persists jobs. Lookups return nil, nil when the job does not exist
// and mutations report whether a row was touched.
type JobStore interface {
	ListJobs(ctx context.Context, userID uuid.UUID) ([]types.Job, error)
	GetJob(ctx context.Context, userID, jobID uuid.UUID) (*types.Job, error)
	InsertJob(ctx context.Context, job *types.Job) error
	UpdateJob(ctx context.Context, job *types.Job) (bool, error)
	UpdateJobStatus(ctx context.Context, userID, jobID uuid.UUID, status types.JobStatus, updatedAt time.Time) (bool, error)
	UpdateJobAttachments(ctx context.Context, userID, jobID uuid.UUID, attachments []types.JobAttachment, updatedAt time.Time) (bool, error)
	DeleteJob(ctx context.Context, userID, jobID uuid.UUID) (bool, error)
}

// ObjectStore holds attachment files.
type ObjectStore interface {
	Upload(ctx context.Context, jobID, objectID uuid.UUID, filename, mimeType string, body []byte) (*storage.Object, error)
	Get(ctx context.Context, url string) ([]byte, error)
	Delete(ctx context.Context, url string) error
}

// JobInput is the editable part of a job.
type JobInput struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Company     string          `json:"company" validate:"required,max=200"`
	Location    string          `json:"location" validate:"max=200"`
	Remote      bool            `json:"remote"`
	Description string          `json:"description,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	AppliedDate types.PlainDate `json:"appliedDate,omitempty"`
	Status      types.JobStatus `json:"status,omitempty"`
}

// Service runs job CRUD, status changes and attachment handling.
type Service struct {
	jobs   JobStore
	files  ObjectStore
	events events.Publisher
	now    func() time.Time

	uploadConcurrency int
}

// NewService creates a tracker service. files may be nil when attachment
// storage is not configured; publisher may be nil.
func NewService(jobs JobStore, files ObjectStore, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		jobs:              jobs,
		files:             files,
		events:            publisher,
		now:               time.Now,
		uploadConcurrency: defaultUploadConcurrency,
	}
}

func (s *Service) validate(in *JobInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Company = strings.TrimSpace(in.Company)
	if in.Title == "" {
		return &InputError{Field: "title", Message: "title is required"}
	}
	if in.Company == "" {
		return &InputError{Field: "company", Message: "company is required"}
	}
	if in.AppliedDate != "" && !in.AppliedDate.Valid() {
		return &InputError{Field: "appliedDate", Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", in.AppliedDate)}
	}
	if in.Status != "" && !in.Status.Valid() {
		return &InputError{Field: "status", Message: fmt.Sprintf("unknown status %q", in.Status)}
	}
	return nil
}

// List returns the user's jobs ranked against query. A blank query lists
// every job by recency.
func (s *Service) List(ctx context.Context, userID uuid.UUID, query string) ([]search.Result, error) {
	jobs, err := s.jobs.ListJobs(ctx, userID)
	if err != nil {
		return nil, &StoreError{Message: "failed to list jobs", Cause: err}
	}
	return search.Rank(query, jobs), nil
}

// Get returns one job.
func (s *Service) Get(ctx context.Context, userID, jobID uuid.UUID) (*types.Job, error) {
	job, err := s.jobs.GetJob(ctx, userID, jobID)
	if err != nil {
		return nil, &StoreError{Message: "failed to get job", Cause: err}
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Create stores a new job. The applied date defaults to today and the
// status to applied.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in JobInput) (*types.Job, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	now := s.now()
	job := &types.Job{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       in.Title,
		Company:     in.Company,
		Location:    strings.TrimSpace(in.Location),
		Remote:      in.Remote,
		Description: in.Description,
		Notes:       in.Notes,
		AppliedDate: in.AppliedDate,
		Status:      in.Status,
		UpdatedAt:   now,
		Attachments: []types.JobAttachment{},
	}
	if job.AppliedDate == "" {
		job.AppliedDate = types.Today(now)
	}
	if job.Status == "" {
		job.Status = types.StatusApplied
	}

	if err := s.jobs.InsertJob(ctx, job); err != nil {
		return nil, &StoreError{Message: "failed to create job", Cause: err}
	}
	events.PublishQuietly(ctx, s.events, events.JobEvent{
		Type: events.JobCreated, JobID: job.ID, UserID: userID, Status: job.Status, OccurredAt: now,
	})
	return job, nil
}

// AnalyzedJob describes a posting that was run through the analyzer.
type AnalyzedJob struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Remote      bool   `json:"remote"`
	Description string `json:"description"`
}

// CreateFromAnalysis records an analyzed posting as an applied job.
func (s *Service) CreateFromAnalysis(ctx context.Context, userID uuid.UUID, a AnalyzedJob) (*types.Job, error) {
	in := JobInput{
		Title:       a.Title,
		Company:     a.Company,
		Location:    a.Location,
		Remote:      a.Remote,
		Description: a.Description,
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = "Untitled position"
	}
	if strings.TrimSpace(in.Company) == "" {
		in.Company = "Unknown company"
	}
	return s.Create(ctx, userID, in)
}

// Update replaces the editable fields of a job. Attachments are kept; an
// empty status keeps the current one.
func (s *Service) Update(ctx context.Context, userID, jobID uuid.UUID, in JobInput) (*types.Job, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	job, err := s.Get(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	previous := job.Status

	job.Title = in.Title
	job.Company = in.Company
	job.Location = strings.TrimSpace(in.Location)
	job.Remote = in.Remote
	job.Description = in.Description
	job.Notes = in.Notes
	if in.AppliedDate != "" {
		job.AppliedDate = in.AppliedDate
	}
	if in.Status != "" {
		job.Status = in.Status
	}
	job.UpdatedAt = s.now()

	ok, err := s.jobs.UpdateJob(ctx, job)
	if err != nil {
		return nil, &StoreError{Message: "failed to update job", Cause: err}
	}
	if !ok {
		return nil, ErrJobNotFound
	}
	if job.Status != previous {
		s.publishStatus(ctx, job, previous)
	}
	return job, nil
}

// SetStatus moves a job to any status, including the one it already has,
// and stamps UpdatedAt.
func (s *Service) SetStatus(ctx context.Context, userID, jobID uuid.UUID, status types.JobStatus) (*types.Job, error) {
	if !status.Valid() {
		return nil, &InputError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	job, err := s.Get(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	previous := job.Status
	job.Status = status
	job.UpdatedAt = s.now()

	ok, err := s.jobs.UpdateJobStatus(ctx, userID, jobID, status, job.UpdatedAt)
	if err != nil {
		return nil, &StoreError{Message: "failed to update job status", Cause: err}
	}
	if !ok {
		return nil, ErrJobNotFound
	}
	s.publishStatus(ctx, job, previous)
	return job, nil
}

func (s *Service) publishStatus(ctx context.Context, job *types.Job, previous types.JobStatus) {
	events.PublishQuietly(ctx, s.events, events.JobEvent{
		Type:           events.JobStatusChanged,
		JobID:          job.ID,
		UserID:         job.UserID,
		Status:         job.Status,
		PreviousStatus: previous,
		OccurredAt:     job.UpdatedAt,
	})
}

// Delete permanently removes a job. Attachment files are removed on a best
// effort basis first.
func (s *Service) Delete(ctx context.Context, userID, jobID uuid.UUID) error {
	job, err := s.Get(ctx, userID, jobID)
	if err != nil {
		return err
	}

	ok, err := s.jobs.DeleteJob(ctx, userID, jobID)
	if err != nil {
		return &StoreError{Message: "failed to delete job", Cause: err}
	}
	if !ok {
		return ErrJobNotFound
	}
	if s.files != nil {
		for _, a := range job.Attachments {
			if err := s.files.Delete(context.WithoutCancel(ctx), a.URL); err != nil {
				log.Printf("[tracker] failed to delete attachment %s of job %s: %v", a.ID, jobID, err)
			}
		}
	}
	events.PublishQuietly(ctx, s.events, events.JobEvent{
		Type: events.JobDeleted, JobID: jobID, UserID: userID, Status: job.Status, OccurredAt: s.now(),
	})
	return nil
}
