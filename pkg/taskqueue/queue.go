// Package taskqueue runs extraction jobs in the background so the HTTP
// API can hand back a job id immediately.
package taskqueue

import (
	"context"
	"encoding/json"
	"time"
)

// Queue enqueues tasks and tracks their state.
type Queue interface {
	// Enqueue adds a task for immediate processing.
	Enqueue(ctx context.Context, taskType TaskType, jobID string, payload interface{}) (string, error)

	// EnqueueAt adds a task to be processed at a specific time.
	EnqueueAt(ctx context.Context, taskType TaskType, jobID string, payload interface{}, processAt time.Time) (string, error)

	// EnqueueIn adds a task to be processed after a delay.
	EnqueueIn(ctx context.Context, taskType TaskType, jobID string, payload interface{}, delay time.Duration) (string, error)

	// GetTask fetches task state by id.
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// GetTasksByJob returns all tasks created for a job.
	GetTasksByJob(ctx context.Context, jobID string) ([]*Task, error)

	// WaitForTask blocks until the task reaches a terminal state.
	// A zero timeout waits indefinitely.
	WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*Task, error)

	// DeleteTask removes a task and its bookkeeping.
	DeleteTask(ctx context.Context, taskID string) error

	// UpdateTaskStatus transitions a task and stores its result.
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errorMsg string) error

	// NotifyTaskUpdate publishes a status-change notification.
	NotifyTaskUpdate(ctx context.Context, taskID string) error

	// Close releases queue connections.
	Close() error
}

// Handler executes one kind of task.
type Handler interface {
	// ProcessTask runs the task to completion or returns an error for retry.
	ProcessTask(ctx context.Context, task *Task) error

	// GetTaskTypes lists the task types this handler serves.
	GetTaskTypes() []TaskType
}

// Worker consumes the queue with a set of registered handlers.
type Worker interface {
	RegisterHandler(taskType TaskType, handler Handler)
	Start() error
	Stop()
}

// Config holds queue and worker settings.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	RetryLimit    int
	RetryDelay    time.Duration
	Queues        map[string]int // queue name to priority
}

// DefaultConfig returns sane local-development settings.
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:   "localhost:6379",
		RedisDB:     0,
		Concurrency: 10,
		RetryLimit:  3,
		RetryDelay:  time.Minute,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	}
}

var (
	// ErrTaskNotFound means the task id has no stored state.
	ErrTaskNotFound = TaskError("task not found")
	// ErrTaskTimeout means WaitForTask gave up.
	ErrTaskTimeout = TaskError("task timed out")
	// ErrInvalidPayload means the payload could not be decoded.
	ErrInvalidPayload = TaskError("invalid task payload")
)

// TaskError is a sentinel error string.
type TaskError string

func (e TaskError) Error() string {
	return string(e)
}

// MarshalPayload serializes a task payload to JSON.
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(payload)
}

// UnmarshalPayload decodes a task payload.
func UnmarshalPayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
