package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/k-telecom/pdf-parser/api/handler"
	"github.com/k-telecom/pdf-parser/internal/document"
	"github.com/k-telecom/pdf-parser/internal/extract"
	"github.com/k-telecom/pdf-parser/internal/models"
	"github.com/k-telecom/pdf-parser/internal/repository"
	"github.com/k-telecom/pdf-parser/internal/services"
	"github.com/k-telecom/pdf-parser/pkg/storage"
	"github.com/k-telecom/pdf-parser/pkg/taskqueue"
)

const sampleReceiptText = `Кассовый чек
АО "ТАНДЕР"
ИНН: 2310031475
Дата: 27.09.2025
ИТОГО: 692.88
Телефон: +7 (861) 210-98-10`

// stubQueue accepts enqueues without a broker so job submission can be
// exercised over HTTP.
type stubQueue struct {
	enqueued int
}

func (q *stubQueue) Enqueue(context.Context, taskqueue.TaskType, string, interface{}) (string, error) {
	q.enqueued++
	return fmt.Sprintf("task-%d", q.enqueued), nil
}

func (q *stubQueue) EnqueueAt(ctx context.Context, tt taskqueue.TaskType, jobID string, payload interface{}, _ time.Time) (string, error) {
	return q.Enqueue(ctx, tt, jobID, payload)
}

func (q *stubQueue) EnqueueIn(ctx context.Context, tt taskqueue.TaskType, jobID string, payload interface{}, _ time.Duration) (string, error) {
	return q.Enqueue(ctx, tt, jobID, payload)
}

func (q *stubQueue) GetTask(context.Context, string) (*taskqueue.Task, error) {
	return nil, taskqueue.ErrTaskNotFound
}

func (q *stubQueue) GetTasksByJob(context.Context, string) ([]*taskqueue.Task, error) {
	return nil, nil
}

func (q *stubQueue) WaitForTask(context.Context, string, time.Duration) (*taskqueue.Task, error) {
	return nil, taskqueue.ErrTaskNotFound
}

func (q *stubQueue) DeleteTask(context.Context, string) error { return nil }

func (q *stubQueue) UpdateTaskStatus(context.Context, string, taskqueue.TaskStatus, interface{}, string) error {
	return nil
}

func (q *stubQueue) NotifyTaskUpdate(context.Context, string) error { return nil }

func (q *stubQueue) Close() error { return nil }

func setupTestRouter(t *testing.T) (*gin.Engine, repository.JobRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbName := fmt.Sprintf("file:api_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}))
	repo := repository.NewJobRepositoryWithDB(db)

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	invoiceSvc := services.NewInvoiceService(document.NewFactory(nil), extract.New())
	jobSvc := services.NewJobService(repo, store, &stubQueue{}, nil)

	router := SetupRouter(
		handler.NewProcessHandler(invoiceSvc),
		handler.NewJobHandler(jobSvc),
	)
	return router, repo
}

// multipartBody builds a multipart body with one file per (field, name, content) triple.
func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doRequest(router *gin.Engine, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestProcessEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	body, contentType := multipartBody(t, "file", map[string]string{"receipt.txt": sampleReceiptText})
	w := doRequest(router, http.MethodPost, "/api/process", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status   string                 `json:"status"`
		Filename string                 `json:"filename"`
		Data     map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "receipt.txt", resp.Filename)
	assert.Equal(t, "2310031475", resp.Data["inn"])
	assert.Equal(t, "27.09.2025", resp.Data["date"])
	assert.Equal(t, 692.88, resp.Data["total"])
}

func TestProcessEndpointUnreadableDocument(t *testing.T) {
	router, _ := setupTestRouter(t)

	body, contentType := multipartBody(t, "file", map[string]string{"blank.txt": "   "})
	w := doRequest(router, http.MethodPost, "/api/process", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string                 `json:"status"`
		Data   map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "failed to extract text from document", resp.Data["error"])
	assert.NotEmpty(t, resp.Data["details"])
}

func TestProcessEndpointUnsupportedType(t *testing.T) {
	router, _ := setupTestRouter(t)

	body, contentType := multipartBody(t, "file", map[string]string{"photo.png": "not a document"})
	w := doRequest(router, http.MethodPost, "/api/process", body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")
}

func TestProcessEndpointMissingFile(t *testing.T) {
	router, _ := setupTestRouter(t)

	body, contentType := multipartBody(t, "other", map[string]string{"receipt.txt": "text"})
	w := doRequest(router, http.MethodPost, "/api/process", body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessBatchEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, doc := range []struct{ name, content string }{
		{"good-1.txt", sampleReceiptText},
		{"blank.txt", "   "},
		{"good-2.txt", sampleReceiptText},
	} {
		part, err := writer.CreateFormFile("files", doc.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(doc.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	w := doRequest(router, http.MethodPost, "/api/process-batch", body, writer.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status     string `json:"status"`
		Total      int    `json:"total"`
		Successful int    `json:"successful"`
		Failed     int    `json:"failed"`
		Results    []struct {
			Status   string                 `json:"status"`
			Filename string                 `json:"filename"`
			Data     map[string]interface{} `json:"data"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Successful)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Results, 3)

	// results keep upload order
	assert.Equal(t, "good-1.txt", resp.Results[0].Filename)
	assert.Equal(t, "success", resp.Results[0].Status)
	assert.Equal(t, "error", resp.Results[1].Status)
	assert.Equal(t, "success", resp.Results[2].Status)
	assert.Equal(t, "2310031475", resp.Results[2].Data["inn"])
}

func TestProcessBatchEndpointEmpty(t *testing.T) {
	router, _ := setupTestRouter(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.Close())

	w := doRequest(router, http.MethodPost, "/api/process-batch", body, writer.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatternsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/patterns", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int `json:"code"`
		Data struct {
			WeightVersion int `json:"weight_version"`
			Fields        []struct {
				Name      string `json:"name"`
				Policy    string `json:"policy"`
				Mandatory bool   `json:"mandatory"`
				Rules     int    `json:"rules"`
			} `json:"fields"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	require.NotEmpty(t, resp.Data.Fields)

	names := make(map[string]bool)
	for _, f := range resp.Data.Fields {
		names[f.Name] = true
		assert.Greater(t, f.Rules, 0, "field %s should have rules", f.Name)
	}
	for _, mandatory := range []string{"inn", "vendor", "date", "total"} {
		assert.True(t, names[mandatory], "missing field %s", mandatory)
	}
}

func TestJobSubmitAndStatus(t *testing.T) {
	router, _ := setupTestRouter(t)

	body, contentType := multipartBody(t, "file", map[string]string{"receipt.txt": sampleReceiptText})
	w := doRequest(router, http.MethodPost, "/api/jobs", body, contentType)
	require.Equal(t, http.StatusAccepted, w.Code)

	var submitResp struct {
		Code int `json:"code"`
		Data struct {
			JobID    string `json:"job_id"`
			FileName string `json:"filename"`
			Status   string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitResp))
	require.NotEmpty(t, submitResp.Data.JobID)
	assert.Equal(t, "receipt.txt", submitResp.Data.FileName)
	assert.Equal(t, "pending", submitResp.Data.Status)

	w = doRequest(router, http.MethodGet, "/api/jobs/"+submitResp.Data.JobID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var statusResp struct {
		Data struct {
			JobID  string `json:"job_id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statusResp))
	assert.Equal(t, submitResp.Data.JobID, statusResp.Data.JobID)
	assert.Equal(t, "pending", statusResp.Data.Status)
}

func TestJobStatusIncludesResult(t *testing.T) {
	router, repo := setupTestRouter(t)

	job := &models.Job{
		ID:       "job-done",
		FileName: "receipt.pdf",
		FileType: "pdf",
		FilePath: "path",
		FileSize: 10,
		Status:   models.JobStatusCompleted,
		Result:   datatypes.JSON(`{"inn":"2310031475","total":692.88}`),
	}
	require.NoError(t, repo.Create(job))

	w := doRequest(router, http.MethodGet, "/api/jobs/job-done", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Status string                 `json:"status"`
			Result map[string]interface{} `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Data.Status)
	assert.Equal(t, "2310031475", resp.Data.Result["inn"])
}

func TestJobNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/jobs/no-such-job", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListJobs(t *testing.T) {
	router, repo := setupTestRouter(t)

	for i := 0; i < 3; i++ {
		status := models.JobStatusPending
		if i == 0 {
			status = models.JobStatusCompleted
		}
		require.NoError(t, repo.Create(&models.Job{
			ID:       fmt.Sprintf("job-%d", i),
			FileName: fmt.Sprintf("doc-%d.pdf", i),
			FileType: "pdf",
			FilePath: "p",
			FileSize: 1,
			Status:   status,
		}))
	}

	w := doRequest(router, http.MethodGet, "/api/jobs?status=pending", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Total int64 `json:"total"`
			Jobs  []struct {
				JobID string `json:"job_id"`
			} `json:"jobs"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Data.Total)
	assert.Len(t, resp.Data.Jobs, 2)
}
