package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/k-telecom/pdf-parser/internal/models"
	"github.com/k-telecom/pdf-parser/internal/repository"
	"github.com/k-telecom/pdf-parser/pkg/storage"
	"github.com/k-telecom/pdf-parser/pkg/taskqueue"
)

// JobService manages asynchronous extraction jobs: it stores the
// uploaded file, persists the job row, and enqueues the work.
type JobService struct {
	repo    repository.JobRepository
	storage storage.Storage
	queue   taskqueue.Queue
	logger  *logrus.Logger
}

// NewJobService creates a job service.
func NewJobService(repo repository.JobRepository, store storage.Storage, queue taskqueue.Queue, logger *logrus.Logger) *JobService {
	if logger == nil {
		logger = logrus.New()
	}
	return &JobService{
		repo:    repo,
		storage: store,
		queue:   queue,
		logger:  logger,
	}
}

// ErrQueueDisabled is returned when jobs are submitted without a
// configured task queue.
var ErrQueueDisabled = errors.New("task queue is disabled")

// Submit stores the document and enqueues an extraction task for it.
func (s *JobService) Submit(ctx context.Context, reader io.Reader, filename string) (*models.Job, error) {
	if s.queue == nil {
		return nil, ErrQueueDisabled
	}

	info, err := s.storage.Save(reader, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	job := &models.Job{
		ID:       uuid.New().String(),
		FileName: filename,
		FileType: fileType,
		FilePath: info.Path,
		FileSize: info.Size,
		Status:   models.JobStatusPending,
	}
	if err := s.repo.Create(job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	payload := taskqueue.ExtractPayload{
		JobID:     job.ID,
		StorageID: info.ID,
		FileName:  filename,
		FileType:  fileType,
	}
	taskID, err := s.queue.Enqueue(ctx, taskqueue.TaskDocumentExtract, job.ID, payload)
	if err != nil {
		// the job row stays behind in failed state so the client can
		// see what happened
		_ = s.repo.UpdateStatus(job.ID, models.JobStatusFailed, fmt.Sprintf("failed to enqueue: %v", err))
		return nil, fmt.Errorf("failed to enqueue extraction task: %w", err)
	}

	job.TaskID = taskID
	if err := s.repo.Update(job); err != nil {
		s.logger.WithError(err).WithField("job_id", job.ID).Warn("failed to record task id on job")
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"task_id":  taskID,
		"filename": filename,
	}).Info("extraction job submitted")

	return job, nil
}

// Get returns a job by id.
func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	return s.repo.GetByID(id)
}

// List returns jobs, newest first.
func (s *JobService) List(ctx context.Context, offset, limit int, status models.JobStatus) ([]*models.Job, int64, error) {
	return s.repo.List(offset, limit, status)
}

// ExtractHandler is the worker-side taskqueue.Handler that executes
// extraction jobs.
type ExtractHandler struct {
	repo    repository.JobRepository
	storage storage.Storage
	service *InvoiceService
	logger  *logrus.Logger
}

// NewExtractHandler creates the handler the worker registers for
// document extraction tasks.
func NewExtractHandler(repo repository.JobRepository, store storage.Storage, service *InvoiceService, logger *logrus.Logger) *ExtractHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &ExtractHandler{
		repo:    repo,
		storage: store,
		service: service,
		logger:  logger,
	}
}

// GetTaskTypes implements taskqueue.Handler.
func (h *ExtractHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{taskqueue.TaskDocumentExtract}
}

// ProcessTask loads the stored document, runs extraction, and writes
// the outcome onto the job row. Extraction-level failures (unreadable
// document) complete the job with an error record; infrastructure
// failures return an error so the queue retries.
func (h *ExtractHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.ExtractPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return taskqueue.ErrInvalidPayload
	}

	log := h.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"job_id":  payload.JobID,
	})

	if err := h.repo.UpdateStatus(payload.JobID, models.JobStatusProcessing, ""); err != nil {
		log.WithError(err).Warn("failed to mark job as processing")
	}

	reader, err := h.storage.Get(payload.StorageID)
	if err != nil {
		failErr := fmt.Errorf("failed to load stored document: %w", err)
		_ = h.repo.UpdateStatus(payload.JobID, models.JobStatusFailed, failErr.Error())
		return failErr
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		failErr := fmt.Errorf("failed to read stored document: %w", err)
		_ = h.repo.UpdateStatus(payload.JobID, models.JobStatusFailed, failErr.Error())
		return failErr
	}

	outcome := h.service.ProcessBytes(ctx, buf.Bytes(), payload.FileName)

	var result []byte
	if outcome.OK() {
		result, err = json.Marshal(outcome.Record)
	} else {
		result, err = json.Marshal(outcome.Failure)
	}
	if err != nil {
		failErr := fmt.Errorf("failed to serialize extraction result: %w", err)
		_ = h.repo.UpdateStatus(payload.JobID, models.JobStatusFailed, failErr.Error())
		return failErr
	}

	if err := h.repo.SetResult(payload.JobID, result); err != nil {
		return fmt.Errorf("failed to store extraction result: %w", err)
	}

	log.WithField("ok", outcome.OK()).Info("extraction job completed")
	return nil
}
