package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/jonathan/resume-tracker/internal/events"
	"github.com/jonathan/resume-tracker/internal/storage"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryJobs struct {
	mu              sync.Mutex
	jobs            map[uuid.UUID]types.Job
	fail            error
	failAttachments error
}

func newMemoryJobs() *memoryJobs {
	return &memoryJobs{jobs: map[uuid.UUID]types.Job{}}
}

func (m *memoryJobs) ListJobs(_ context.Context, userID uuid.UUID) ([]types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := []types.Job{}
	for _, j := range m.jobs {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memoryJobs) GetJob(_ context.Context, userID, jobID uuid.UUID) (*types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	j, ok := m.jobs[jobID]
	if !ok || j.UserID != userID {
		return nil, nil
	}
	return &j, nil
}

func (m *memoryJobs) InsertJob(_ context.Context, job *types.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *memoryJobs) UpdateJob(_ context.Context, job *types.Job) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return false, nil
	}
	m.jobs[job.ID] = *job
	return true, nil
}

func (m *memoryJobs) UpdateJobStatus(_ context.Context, _, jobID uuid.UUID, status types.JobStatus, updatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return false, nil
	}
	j.Status, j.UpdatedAt = status, updatedAt
	m.jobs[jobID] = j
	return true, nil
}

func (m *memoryJobs) UpdateJobAttachments(_ context.Context, _, jobID uuid.UUID, attachments []types.JobAttachment, updatedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAttachments != nil {
		return false, m.failAttachments
	}
	j, ok := m.jobs[jobID]
	if !ok {
		return false, nil
	}
	j.Attachments, j.UpdatedAt = attachments, updatedAt
	m.jobs[jobID] = j
	return true, nil
}

func (m *memoryJobs) DeleteJob(_ context.Context, _, jobID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[jobID]; !ok {
		return false, nil
	}
	delete(m.jobs, jobID)
	return true, nil
}

type memoryFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{objects: map[string][]byte{}}
}

func (f *memoryFiles) Upload(_ context.Context, jobID, objectID uuid.UUID, filename, mimeType string, body []byte) (*storage.Object, error) {
	if filename == f.failOn {
		return nil, errors.New("bucket unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s/%s-%s", jobID, objectID, storage.SanitizeFilename(filename))
	url := "https://files.example.com/" + key
	f.objects[url] = body
	return &storage.Object{Key: key, URL: url, Size: int64(len(body)), MimeType: mimeType}, nil
}

func (f *memoryFiles) Get(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[url]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (f *memoryFiles) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, url)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.JobEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.JobEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestService() (*Service, *memoryJobs, *memoryFiles, *recordingPublisher) {
	jobs := newMemoryJobs()
	files := newMemoryFiles()
	pub := &recordingPublisher{}
	svc := NewService(jobs, files, pub)
	clock := &testClock{t: time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)}
	svc.now = clock.now
	return svc, jobs, files, pub
}

func TestCreate_KeepsAppliedDateVerbatim(t *testing.T) {
	svc, jobs, _, pub := newTestService()
	userID := uuid.New()

	job, err := svc.Create(context.Background(), userID, JobInput{
		Title:       "Backend Engineer",
		Company:     " Acme ",
		AppliedDate: "2024-03-15",
	})

	require.NoError(t, err)
	assert.Equal(t, types.PlainDate("2024-03-15"), job.AppliedDate)
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, types.StatusApplied, job.Status)
	assert.Equal(t, "2024-03-15", string(jobs.jobs[job.ID].AppliedDate))
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.JobCreated, pub.events[0].Type)
}

func TestCreate_DefaultsAppliedDateToToday(t *testing.T) {
	svc, _, _, _ := newTestService()

	job, err := svc.Create(context.Background(), uuid.New(), JobInput{Title: "Engineer", Company: "Acme"})

	require.NoError(t, err)
	assert.Equal(t, types.PlainDate("2024-03-15"), job.AppliedDate)
}

func TestCreate_Validation(t *testing.T) {
	svc, jobs, _, _ := newTestService()
	tests := []struct {
		name  string
		in    JobInput
		field string
	}{
		{"missing title", JobInput{Company: "Acme"}, "title"},
		{"missing company", JobInput{Title: "Engineer", Company: "  "}, "company"},
		{"bad date", JobInput{Title: "Engineer", Company: "Acme", AppliedDate: "03/15/2024"}, "appliedDate"},
		{"bad status", JobInput{Title: "Engineer", Company: "Acme", Status: "ghosted"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), uuid.New(), tt.in)

			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
	assert.Empty(t, jobs.jobs)
}

func TestSetStatus_AnyToAnyBumpsUpdatedAt(t *testing.T) {
	svc, _, _, pub := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	job, err := svc.Create(ctx, userID, JobInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)

	last := job.UpdatedAt
	for _, from := range types.JobStatuses {
		for _, to := range types.JobStatuses {
			_, err := svc.SetStatus(ctx, userID, job.ID, from)
			require.NoError(t, err)

			updated, err := svc.SetStatus(ctx, userID, job.ID, to)
			require.NoError(t, err)
			assert.Equal(t, to, updated.Status)
			assert.True(t, updated.UpdatedAt.After(last), "%s -> %s did not bump UpdatedAt", from, to)
			last = updated.UpdatedAt

			stored, err := svc.Get(ctx, userID, job.ID)
			require.NoError(t, err)
			assert.Equal(t, to, stored.Status)
			assert.Equal(t, types.PlainDate("2024-03-15"), stored.AppliedDate)
		}
	}
	lastEvent := pub.events[len(pub.events)-1]
	assert.Equal(t, events.JobStatusChanged, lastEvent.Type)
	assert.Equal(t, types.StatusArchived, lastEvent.Status)
}

func TestSetStatus_Errors(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.SetStatus(context.Background(), uuid.New(), uuid.New(), types.StatusOffered)
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = svc.SetStatus(context.Background(), uuid.New(), uuid.New(), "hired")
	var inputErr *InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestUpdate_KeepsAttachmentsAndStatus(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	job, err := svc.Create(ctx, userID, JobInput{Title: "Engineer", Company: "Acme", Status: types.StatusInterviewing})
	require.NoError(t, err)
	_, err = svc.AddAttachments(ctx, userID, job.ID, []Upload{{Name: "jd.txt", Data: []byte("Go")}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, userID, job.ID, JobInput{Title: "Senior Engineer", Company: "Acme", Notes: "Referral"})

	require.NoError(t, err)
	assert.Equal(t, "Senior Engineer", updated.Title)
	assert.Equal(t, types.StatusInterviewing, updated.Status)
	assert.Len(t, updated.Attachments, 1)
	assert.Equal(t, types.PlainDate("2024-03-15"), updated.AppliedDate)

	_, err = svc.Update(ctx, userID, uuid.New(), JobInput{Title: "x", Company: "y"})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestList_UsesSearchRanking(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	_, err := svc.Create(ctx, userID, JobInput{Title: "Engineer", Company: "Acme Labs"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, JobInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, JobInput{Title: "Designer", Company: "Brightwave"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, uuid.New(), JobInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)

	results, err := svc.List(ctx, userID, "Acme")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Acme", results[0].Job.Company)
	assert.Equal(t, 30, results[0].Score)
	assert.Equal(t, 10, results[1].Score)

	all, err := svc.List(ctx, userID, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Brightwave", all[0].Job.Company)
}

func TestList_StoreFailure(t *testing.T) {
	svc, jobs, _, _ := newTestService()
	jobs.fail = errors.New("connection refused")

	_, err := svc.List(context.Background(), uuid.New(), "")

	var storeErr *StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestCreateFromAnalysis(t *testing.T) {
	svc, _, _, _ := newTestService()

	job, err := svc.CreateFromAnalysis(context.Background(), uuid.New(), AnalyzedJob{Description: "React developer"})

	require.NoError(t, err)
	assert.Equal(t, "Untitled position", job.Title)
	assert.Equal(t, "Unknown company", job.Company)
	assert.Equal(t, types.StatusApplied, job.Status)
	assert.Equal(t, "React developer", job.Description)
}

func TestDelete_RemovesJobAndFiles(t *testing.T) {
	svc, jobs, files, pub := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	job, err := svc.Create(ctx, userID, JobInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)
	_, err = svc.AddAttachments(ctx, userID, job.ID, []Upload{{Name: "a.txt", Data: []byte("a")}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, job.ID))

	assert.Empty(t, jobs.jobs)
	assert.Empty(t, files.objects)
	assert.Equal(t, events.JobDeleted, pub.events[len(pub.events)-1].Type)
	assert.ErrorIs(t, svc.Delete(ctx, userID, job.ID), ErrJobNotFound)
}

func TestAddAttachments_Concurrent(t *testing.T) {
	svc, _, files, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	job, err := svc.Create(ctx, userID, JobInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)

	var uploads []Upload
	for i := range 6 {
		uploads = append(uploads, Upload{Name: fmt.Sprintf("file-%d.pdf", i), Data: []byte{byte(i + 1)}})
	}
	updated, err := svc.AddAttachments(ctx, userID, job.ID, uploads)

	require.NoError(t, err)
	require.Len(t, updated.Attachments, 6)
	for i, a := range updated.Attachments {
		assert.Equal(t, fmt.Sprintf("file-%d.pdf", i), a.Name)
		assert.Equal(t, "application/pdf", a.MimeType)
		assert.Equal(t, int64(1), a.Size)
		assert.NotEqual(t, uuid.Nil, a.ID)
	}
	assert.Len(t, files.objects, 6)
}

func TestAddAttachments_FailureCleansUp(t *testing.T) {
	svc, jobs, files, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	job, err := svc.Create(ctx, userID, JobInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)
	files.failOn = "bad.pdf"

	_, err = svc.AddAttachments(ctx, userID, job.ID, []Upload{
		{Name: "good.pdf", Data: []byte("1")},
		{Name: "bad.pdf", Data: []byte("2")},
	})

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Empty(t, files.objects)
	assert.Empty(t, jobs.jobs[job.ID].Attachments)
}

func TestAddAttachments_Validation(t *testing.T) {
	svc, _, _, _ := newTestService()
	var inputErr *InputError

	_, err := svc.AddAttachments(context.Background(), uuid.New(), uuid.New(), nil)
	assert.ErrorAs(t, err, &inputErr)

	_, err = svc.AddAttachments(context.Background(), uuid.New(), uuid.New(), []Upload{{Name: "empty.txt"}})
	assert.ErrorAs(t, err, &inputErr)

	noFiles := NewService(newMemoryJobs(), nil, nil)
	_, err = noFiles.AddAttachments(context.Background(), uuid.New(), uuid.New(), []Upload{{Name: "a", Data: []byte("a")}})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestRemoveAttachmentAndText(t *testing.T) {
	svc, _, files, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	job, err := svc.Create(ctx, userID, JobInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)
	job, err = svc.AddAttachments(ctx, userID, job.ID, []Upload{
		{Name: "jd.txt", MimeType: "text/plain; charset=utf-8", Data: []byte("We need  React\n\n and Go")},
		{Name: "logo.png", MimeType: "image/png", Data: []byte{0x89}},
	})
	require.NoError(t, err)

	text, err := svc.AttachmentText(ctx, userID, job.ID, job.Attachments[0].ID)
	require.NoError(t, err)
	assert.Contains(t, text, "React")

	_, err = svc.AttachmentText(ctx, userID, job.ID, job.Attachments[1].ID)
	assert.Error(t, err)

	updated, err := svc.RemoveAttachment(ctx, userID, job.ID, job.Attachments[0].ID)
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, "logo.png", updated.Attachments[0].Name)
	assert.Len(t, files.objects, 1)

	_, err = svc.RemoveAttachment(ctx, userID, job.ID, uuid.New())
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestRemoveAttachment_StoreFailureKeepsFile(t *testing.T) {
	svc, jobs, files, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	job, err := svc.Create(ctx, userID, JobInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)
	job, err = svc.AddAttachments(ctx, userID, job.ID, []Upload{{Name: "jd.txt", Data: []byte("React")}})
	require.NoError(t, err)
	jobs.failAttachments = errors.New("connection reset")

	_, err = svc.RemoveAttachment(ctx, userID, job.ID, job.Attachments[0].ID)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	data, err := files.Get(ctx, job.Attachments[0].URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("React"), data)
	assert.Len(t, jobs.jobs[job.ID].Attachments, 1)
}

// bucketAPI is a storage.ObjectAPI safe for concurrent uploads.
type bucketAPI struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *bucketAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (b *bucketAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (b *bucketAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestAddAttachments_SameNameFilesStayDistinct(t *testing.T) {
	bucket := &bucketAPI{objects: map[string][]byte{}}
	svc := NewService(newMemoryJobs(), storage.NewWithAPI(bucket, "attachments", "https://files.example.com"), nil)
	ctx := context.Background()
	userID := uuid.New()
	job, err := svc.Create(ctx, userID, JobInput{Title: "Engineer", Company: "Acme"})
	require.NoError(t, err)

	for round := range 10 {
		job, err = svc.AddAttachments(ctx, userID, job.ID, []Upload{
			{Name: "resume.pdf", Data: []byte(fmt.Sprintf("first-%d", round))},
			{Name: "resume.pdf", Data: []byte(fmt.Sprintf("second-%d", round))},
		})
		require.NoError(t, err)
	}

	require.Len(t, job.Attachments, 20)
	urls := map[string]bool{}
	for _, a := range job.Attachments {
		urls[a.URL] = true
	}
	assert.Len(t, urls, 20)
	assert.Len(t, bucket.objects, 20)

	job, err = svc.RemoveAttachment(ctx, userID, job.ID, job.Attachments[0].ID)
	require.NoError(t, err)
	data, err := svc.files.Get(ctx, job.Attachments[0].URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("second-0"), data)
	assert.Len(t, bucket.objects, 19)
}
