package repository

import "github.com/k-telecom/pdf-parser/internal/models"

// JobRepository stores and retrieves asynchronous extraction jobs.
type JobRepository interface {
	// Create inserts a new job row.
	Create(job *models.Job) error

	// Update saves all fields of an existing job.
	Update(job *models.Job) error

	// GetByID fetches a job, returning models.ErrJobNotFound when absent.
	GetByID(id string) (*models.Job, error)

	// List returns jobs ordered by creation time, newest first, with
	// optional status filtering.
	List(offset, limit int, status models.JobStatus) ([]*models.Job, int64, error)

	// Delete removes a job row.
	Delete(id string) error

	// UpdateStatus transitions a job and records timestamps and errors.
	UpdateStatus(id string, status models.JobStatus, errorMsg string) error

	// SetResult stores the extraction outcome and completes the job.
	SetResult(id string, result []byte) error
}
