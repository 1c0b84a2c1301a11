package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType names a kind of background work.
type TaskType string

const (
	// TaskDocumentExtract runs field extraction over a stored document.
	TaskDocumentExtract TaskType = "document_extract"
)

// TaskStatus is a task's lifecycle state.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Task holds the queued unit of work and its bookkeeping.
type Task struct {
	ID          string          `json:"id"`
	Type        TaskType        `json:"type"`
	JobID       string          `json:"job_id"` // extraction job this task serves
	Status      TaskStatus      `json:"status"`
	Payload     json.RawMessage `json:"payload"`
	Result      json.RawMessage `json:"result"`
	Error       string          `json:"error"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	StartedAt   *time.Time      `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Attempts    int             `json:"attempts"`
	MaxRetries  int             `json:"max_retries"`
}

// ExtractPayload tells the worker where the uploaded document lives.
type ExtractPayload struct {
	JobID     string `json:"job_id"`
	StorageID string `json:"storage_id"` // id in object storage
	FileName  string `json:"file_name"`
	FileType  string `json:"file_type"`
}
