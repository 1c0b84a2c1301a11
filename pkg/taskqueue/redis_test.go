package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQueueConfig(addr string) *Config {
	return &Config{
		RedisAddr:   addr,
		Concurrency: 2,
		RetryLimit:  2,
		RetryDelay:  time.Second,
		Queues:      map[string]int{"default": 1},
	}
}

func newTestQueue(t *testing.T) Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	queue, err := NewRedisQueue(testQueueConfig(mr.Addr()))
	require.NoError(t, err)
	t.Cleanup(func() { queue.Close() })
	return queue
}

func TestNewRedisQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	queue, err := NewRedisQueue(testQueueConfig(mr.Addr()))
	require.NoError(t, err)
	assert.NoError(t, queue.Close())
}

func TestRedisQueue_Enqueue(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	payload := &ExtractPayload{
		JobID:     "job-123",
		StorageID: "f3a1",
		FileName:  "receipt.pdf",
		FileType:  "pdf",
	}

	taskID, err := queue.Enqueue(ctx, TaskDocumentExtract, "job-123", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, taskID)

	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, TaskDocumentExtract, task.Type)
	assert.Equal(t, "job-123", task.JobID)
	assert.Equal(t, StatusPending, task.Status)

	var decoded ExtractPayload
	require.NoError(t, UnmarshalPayload(task.Payload, &decoded))
	assert.Equal(t, "receipt.pdf", decoded.FileName)
}

func TestRedisQueue_GetTaskNotFound(t *testing.T) {
	queue := newTestQueue(t)
	_, err := queue.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRedisQueue_GetTasksByJob(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	id1, err := queue.Enqueue(ctx, TaskDocumentExtract, "job-a", nil)
	require.NoError(t, err)
	id2, err := queue.Enqueue(ctx, TaskDocumentExtract, "job-a", nil)
	require.NoError(t, err)
	_, err = queue.Enqueue(ctx, TaskDocumentExtract, "job-b", nil)
	require.NoError(t, err)

	tasks, err := queue.GetTasksByJob(ctx, "job-a")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	ids := []string{tasks[0].ID, tasks[1].ID}
	assert.ElementsMatch(t, []string{id1, id2}, ids)

	empty, err := queue.GetTasksByJob(ctx, "job-none")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRedisQueue_UpdateTaskStatus(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskDocumentExtract, "job-x", nil)
	require.NoError(t, err)

	err = queue.UpdateTaskStatus(ctx, taskID, StatusProcessing, nil, "")
	require.NoError(t, err)
	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, task.Status)
	assert.NotNil(t, task.StartedAt)

	result := map[string]interface{}{"ИНН": "2310031475"}
	err = queue.UpdateTaskStatus(ctx, taskID, StatusCompleted, result, "")
	require.NoError(t, err)
	task, err = queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)
	assert.Contains(t, string(task.Result), "2310031475")
}

func TestRedisQueue_WaitForTask(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskDocumentExtract, "job-w", nil)
	require.NoError(t, err)

	// complete the task from another goroutine while waiting
	go func() {
		time.Sleep(100 * time.Millisecond)
		queue.UpdateTaskStatus(context.Background(), taskID, StatusCompleted, nil, "")
		queue.NotifyTaskUpdate(context.Background(), taskID)
	}()

	task, err := queue.WaitForTask(ctx, taskID, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
}

func TestRedisQueue_WaitForTaskTimeout(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskDocumentExtract, "job-t", nil)
	require.NoError(t, err)

	_, err = queue.WaitForTask(ctx, taskID, 1500*time.Millisecond)
	assert.ErrorIs(t, err, ErrTaskTimeout)
}

func TestRedisQueue_DeleteTask(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskDocumentExtract, "job-d", nil)
	require.NoError(t, err)

	require.NoError(t, queue.DeleteTask(ctx, taskID))

	_, err = queue.GetTask(ctx, taskID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	tasks, err := queue.GetTasksByJob(ctx, "job-d")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestNewQueueFactory(t *testing.T) {
	mr := miniredis.RunT(t)

	queue, err := NewQueue("redis", testQueueConfig(mr.Addr()))
	require.NoError(t, err)
	defer queue.Close()

	_, err = NewQueue("no-such-backend", nil)
	assert.Error(t, err)
}
