package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/k-telecom/pdf-parser/api/middleware"
	"github.com/k-telecom/pdf-parser/api/model"
	"github.com/k-telecom/pdf-parser/internal/models"
	"github.com/k-telecom/pdf-parser/internal/services"
)

// JobHandler serves asynchronous extraction jobs.
type JobHandler struct {
	jobService *services.JobService
	logger     *logrus.Logger
}

// NewJobHandler creates a job handler.
func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		logger:     middleware.GetLogger(),
	}
}

// SubmitJob handles POST /api/jobs.
// The document is stored and queued; extraction happens on a worker.
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req model.JobSubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleError(c, bindError(err))
		return
	}

	if err := validateUpload(req.File.Filename, req.File.Size); err != nil {
		middleware.HandleError(c, err)
		return
	}

	f, err := req.File.Open()
	if err != nil {
		h.logger.WithError(err).Error("Failed to open uploaded file")
		middleware.HandleError(c, middleware.NewInternalError("failed to read uploaded file"))
		return
	}
	defer f.Close()

	job, err := h.jobService.Submit(c.Request.Context(), f, req.File.Filename)
	if err != nil {
		if errors.Is(err, services.ErrQueueDisabled) {
			middleware.HandleError(c, middleware.NewBusinessError("asynchronous processing is not enabled"))
			return
		}
		h.logger.WithError(err).WithField("filename", req.File.Filename).Error("Failed to submit extraction job")
		middleware.HandleError(c, middleware.NewInternalError("failed to submit extraction job"))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"filename": job.FileName,
	}).Info("Extraction job submitted")

	c.JSON(http.StatusAccepted, model.NewSuccessResponse(model.JobSubmitResponse{
		JobID:    job.ID,
		FileName: job.FileName,
		Status:   string(job.Status),
	}))
}

// GetJob handles GET /api/jobs/:id.
// Completed jobs carry the extraction result; the result itself may be
// an error record when the document was unreadable.
func (h *JobHandler) GetJob(c *gin.Context) {
	var req model.JobStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("job id is required", err.Error()))
		return
	}

	job, err := h.jobService.Get(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			middleware.HandleError(c, middleware.NewNotFoundError("job not found"))
			return
		}
		h.logger.WithError(err).WithField("job_id", req.ID).Error("Failed to load job")
		middleware.HandleError(c, middleware.NewInternalError("failed to load job"))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(jobStatusResponse(job)))
}

// ListJobs handles GET /api/jobs.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req model.JobListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid list parameters", err.Error()))
		return
	}

	offset := (req.GetPage() - 1) * req.GetPageSize()
	jobs, total, err := h.jobService.List(c.Request.Context(), offset, req.GetPageSize(), models.JobStatus(req.Status))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list jobs")
		middleware.HandleError(c, middleware.NewInternalError("failed to list jobs"))
		return
	}

	resp := model.JobListResponse{
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
		Jobs:     make([]model.JobStatusResponse, 0, len(jobs)),
	}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, jobStatusResponse(job))
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

func jobStatusResponse(job *models.Job) model.JobStatusResponse {
	return model.JobStatusResponse{
		JobID:     job.ID,
		FileName:  job.FileName,
		Status:    string(job.Status),
		Error:     job.Error,
		Result:    json.RawMessage(job.Result),
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}
