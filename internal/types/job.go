package types

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the application pipeline status of a tracked job.
type JobStatus string

const (
	StatusApplied      JobStatus = "applied"
	StatusInterviewing JobStatus = "interviewing"
	StatusOffered      JobStatus = "offered"
	StatusRejected     JobStatus = "rejected"
	StatusArchived     JobStatus = "archived"
)

// JobStatuses lists every status in pipeline order.
var JobStatuses = []JobStatus{
	StatusApplied, StatusInterviewing, StatusOffered, StatusRejected, StatusArchived,
}

// Valid reports whether s is one of the enumerated statuses.
func (s JobStatus) Valid() bool {
	for _, known := range JobStatuses {
		if s == known {
			return true
		}
	}
	return false
}

var plainDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// PlainDate is a calendar date kept exactly as the user entered it (YYYY-MM-DD).
// It is never converted to a time.Time, so no timezone can shift the day.
type PlainDate string

// Valid reports whether the date has the YYYY-MM-DD shape.
func (d PlainDate) Valid() bool {
	return plainDatePattern.MatchString(string(d))
}

// String returns the date verbatim.
func (d PlainDate) String() string {
	return string(d)
}

// Today returns the current local calendar date as a PlainDate.
func Today(now time.Time) PlainDate {
	return PlainDate(now.Format("2006-01-02"))
}

// JobAttachment is a file uploaded against a job.
type JobAttachment struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	MimeType   string    `json:"type"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Job is a tracked job application.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"userId"`
	Title       string          `json:"title"`
	Company     string          `json:"company"`
	Location    string          `json:"location"`
	Remote      bool            `json:"remote"`
	Description string          `json:"description,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	AppliedDate PlainDate       `json:"appliedDate"`
	Status      JobStatus       `json:"status"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Attachments []JobAttachment `json:"attachments"`
}

// RecencyKey returns the sortable recency of the job: UpdatedAt when set,
// otherwise the applied date at midnight UTC. The applied date is parsed only
// for ordering and never written back.
func (j *Job) RecencyKey() time.Time {
	if !j.UpdatedAt.IsZero() {
		return j.UpdatedAt
	}
	t, err := time.Parse("2006-01-02", string(j.AppliedDate))
	if err != nil {
		return time.Time{}
	}
	return t
}
