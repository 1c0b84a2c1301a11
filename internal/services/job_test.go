package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/k-telecom/pdf-parser/internal/document"
	"github.com/k-telecom/pdf-parser/internal/extract"
	"github.com/k-telecom/pdf-parser/internal/models"
	"github.com/k-telecom/pdf-parser/internal/repository"
	"github.com/k-telecom/pdf-parser/pkg/storage"
	"github.com/k-telecom/pdf-parser/pkg/taskqueue"
)

// fakeQueue records enqueued tasks without touching Redis.
type fakeQueue struct {
	enqueued []taskqueue.ExtractPayload
	failNext bool
}

func (q *fakeQueue) Enqueue(_ context.Context, _ taskqueue.TaskType, _ string, payload interface{}) (string, error) {
	if q.failNext {
		return "", fmt.Errorf("queue unavailable")
	}
	p, _ := payload.(taskqueue.ExtractPayload)
	q.enqueued = append(q.enqueued, p)
	return fmt.Sprintf("task-%d", len(q.enqueued)), nil
}

func (q *fakeQueue) EnqueueAt(ctx context.Context, tt taskqueue.TaskType, jobID string, payload interface{}, _ time.Time) (string, error) {
	return q.Enqueue(ctx, tt, jobID, payload)
}

func (q *fakeQueue) EnqueueIn(ctx context.Context, tt taskqueue.TaskType, jobID string, payload interface{}, _ time.Duration) (string, error) {
	return q.Enqueue(ctx, tt, jobID, payload)
}

func (q *fakeQueue) GetTask(context.Context, string) (*taskqueue.Task, error) {
	return nil, taskqueue.ErrTaskNotFound
}

func (q *fakeQueue) GetTasksByJob(context.Context, string) ([]*taskqueue.Task, error) {
	return nil, nil
}

func (q *fakeQueue) WaitForTask(context.Context, string, time.Duration) (*taskqueue.Task, error) {
	return nil, taskqueue.ErrTaskNotFound
}

func (q *fakeQueue) DeleteTask(context.Context, string) error { return nil }

func (q *fakeQueue) UpdateTaskStatus(context.Context, string, taskqueue.TaskStatus, interface{}, string) error {
	return nil
}

func (q *fakeQueue) NotifyTaskUpdate(context.Context, string) error { return nil }

func (q *fakeQueue) Close() error { return nil }

func setupJobTest(t *testing.T) (repository.JobRepository, storage.Storage, *fakeQueue) {
	t.Helper()

	dbName := fmt.Sprintf("file:jobsvc_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}))

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	return repository.NewJobRepositoryWithDB(db), store, &fakeQueue{}
}

func TestJobServiceSubmit(t *testing.T) {
	repo, store, queue := setupJobTest(t)
	svc := NewJobService(repo, store, queue, nil)

	job, err := svc.Submit(context.Background(), bytes.NewBufferString(sampleReceiptText), "receipt.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "receipt.txt", job.FileName)
	assert.Equal(t, "txt", job.FileType)
	assert.Equal(t, "task-1", job.TaskID)

	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, job.ID, queue.enqueued[0].JobID)

	// the stored file must be retrievable for the worker
	ok, err := store.Exists(queue.enqueued[0].StorageID)
	require.NoError(t, err)
	assert.True(t, ok)

	saved, err := svc.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, saved.Status)
}

func TestJobServiceSubmitEnqueueFailure(t *testing.T) {
	repo, store, queue := setupJobTest(t)
	queue.failNext = true
	svc := NewJobService(repo, store, queue, nil)

	_, err := svc.Submit(context.Background(), bytes.NewBufferString("text"), "doc.txt")
	require.Error(t, err)

	// the job row survives in failed state
	jobs, total, err := svc.List(context.Background(), 0, 10, models.JobStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, jobs, 1)
	assert.Contains(t, jobs[0].Error, "failed to enqueue")
}

func TestExtractHandlerProcessTask(t *testing.T) {
	repo, store, queue := setupJobTest(t)
	jobSvc := NewJobService(repo, store, queue, nil)
	invoiceSvc := NewInvoiceService(document.NewFactory(nil), extract.New())

	job, err := jobSvc.Submit(context.Background(), bytes.NewBufferString(sampleReceiptText), "receipt.txt")
	require.NoError(t, err)

	handler := NewExtractHandler(repo, store, invoiceSvc, nil)
	assert.Equal(t, []taskqueue.TaskType{taskqueue.TaskDocumentExtract}, handler.GetTaskTypes())

	payload, err := taskqueue.MarshalPayload(queue.enqueued[0])
	require.NoError(t, err)
	task := &taskqueue.Task{
		ID:      "task-1",
		Type:    taskqueue.TaskDocumentExtract,
		JobID:   job.ID,
		Payload: payload,
	}

	require.NoError(t, handler.ProcessTask(context.Background(), task))

	done, err := repo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, done.Status)

	var record map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(done.Result, &record))
	assert.Contains(t, string(record["inn"]), "2310031475")
}

func TestExtractHandlerUnreadableDocumentCompletesWithErrorRecord(t *testing.T) {
	repo, store, queue := setupJobTest(t)
	jobSvc := NewJobService(repo, store, queue, nil)
	invoiceSvc := NewInvoiceService(document.NewFactory(nil), extract.New())

	job, err := jobSvc.Submit(context.Background(), bytes.NewBufferString("   "), "blank.txt")
	require.NoError(t, err)

	handler := NewExtractHandler(repo, store, invoiceSvc, nil)
	payload, err := taskqueue.MarshalPayload(queue.enqueued[0])
	require.NoError(t, err)

	err = handler.ProcessTask(context.Background(), &taskqueue.Task{
		ID:      "task-1",
		JobID:   job.ID,
		Payload: payload,
	})
	require.NoError(t, err, "unreadable documents are a result, not a retryable error")

	done, err := repo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, done.Status)
	assert.Contains(t, string(done.Result), "failed to extract text")
}

func TestExtractHandlerMissingFileFailsJob(t *testing.T) {
	repo, store, _ := setupJobTest(t)
	invoiceSvc := NewInvoiceService(document.NewFactory(nil), extract.New())
	handler := NewExtractHandler(repo, store, invoiceSvc, nil)

	job := &models.Job{ID: "job-gone", FileName: "x.txt", FileType: "txt", FilePath: "p", FileSize: 1}
	require.NoError(t, repo.Create(job))

	payload, err := taskqueue.MarshalPayload(taskqueue.ExtractPayload{
		JobID:     "job-gone",
		StorageID: "never-stored",
		FileName:  "x.txt",
	})
	require.NoError(t, err)

	err = handler.ProcessTask(context.Background(), &taskqueue.Task{ID: "t", JobID: "job-gone", Payload: payload})
	require.Error(t, err, "infrastructure failures must surface for retry")

	failed, err := repo.GetByID("job-gone")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, failed.Status)
}
