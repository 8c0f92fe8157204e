package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-tracker/internal/schemas"
	"github.com/jonathan/resume-tracker/internal/types"
)

const jobColumns = `id, user_id, position, company, location, remote, description, notes,
	status, application_date, attachments, updated_at`

func scanJob(row pgx.Row) (*types.Job, error) {
	var (
		job         types.Job
		status      string
		appliedDate string
		attachments []byte
	)
	err := row.Scan(
		&job.ID, &job.UserID, &job.Title, &job.Company, &job.Location, &job.Remote,
		&job.Description, &job.Notes, &status, &appliedDate, &attachments, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = types.JobStatus(status)
	job.AppliedDate = types.PlainDate(appliedDate)

	job.Attachments, err = schemas.ParseAttachments(attachments)
	if err != nil {
		log.Printf("[db] discarding malformed attachments for job %s: %v", job.ID, err)
		job.Attachments = []types.JobAttachment{}
	}
	return &job, nil
}

func encodeAttachments(attachments []types.JobAttachment) ([]byte, error) {
	if attachments == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attachments: %w", err)
	}
	return data, nil
}

// ListJobs returns every job for the user, most recently updated first.
func (db *DB) ListJobs(ctx context.Context, userID uuid.UUID) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []types.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// GetJob retrieves one of the user's jobs. Returns nil, nil if not found.
func (db *DB) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*types.Job, error) {
	job, err := scanJob(db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2`,
		jobID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// InsertJob stores a new job. The ID, user, status and timestamps must
// already be set on job.
func (db *DB) InsertJob(ctx context.Context, job *types.Job) error {
	attachments, err := encodeAttachments(job.Attachments)
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO jobs (id, user_id, position, company, location, remote, description, notes,
		                   status, application_date, attachments, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID, job.UserID, job.Title, job.Company, job.Location, job.Remote,
		job.Description, job.Notes, string(job.Status), string(job.AppliedDate),
		attachments, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// UpdateJob overwrites every mutable column of the job. Returns false when
// the job does not exist for the user.
func (db *DB) UpdateJob(ctx context.Context, job *types.Job) (bool, error) {
	attachments, err := encodeAttachments(job.Attachments)
	if err != nil {
		return false, err
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE jobs
		 SET position = $3, company = $4, location = $5, remote = $6, description = $7,
		     notes = $8, status = $9, application_date = $10, attachments = $11, updated_at = $12
		 WHERE id = $1 AND user_id = $2`,
		job.ID, job.UserID, job.Title, job.Company, job.Location, job.Remote,
		job.Description, job.Notes, string(job.Status), string(job.AppliedDate),
		attachments, job.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateJobStatus sets the status and updated_at of a job.
func (db *DB) UpdateJobStatus(ctx context.Context, userID, jobID uuid.UUID, status types.JobStatus, updatedAt time.Time) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE jobs SET status = $3, updated_at = $4 WHERE id = $1 AND user_id = $2`,
		jobID, userID, string(status), updatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update job status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateJobAttachments replaces the attachments array of a job.
func (db *DB) UpdateJobAttachments(ctx context.Context, userID, jobID uuid.UUID, attachments []types.JobAttachment, updatedAt time.Time) (bool, error) {
	data, err := encodeAttachments(attachments)
	if err != nil {
		return false, err
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE jobs SET attachments = $3, updated_at = $4 WHERE id = $1 AND user_id = $2`,
		jobID, userID, data, updatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update job attachments: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteJob permanently removes a job and returns whether it existed.
func (db *DB) DeleteJob(ctx context.Context, userID, jobID uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1 AND user_id = $2`, jobID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
