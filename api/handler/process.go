package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/k-telecom/pdf-parser/api/middleware"
	"github.com/k-telecom/pdf-parser/api/model"
	"github.com/k-telecom/pdf-parser/internal/extract"
	"github.com/k-telecom/pdf-parser/internal/services"
)

// MaxUploadSize limits a single uploaded document.
const MaxUploadSize = 10 << 20 // 10MB

// ProcessHandler serves synchronous extraction requests.
type ProcessHandler struct {
	invoiceService *services.InvoiceService
	logger         *logrus.Logger
}

// NewProcessHandler creates a synchronous extraction handler.
func NewProcessHandler(invoiceService *services.InvoiceService) *ProcessHandler {
	return &ProcessHandler{
		invoiceService: invoiceService,
		logger:         middleware.GetLogger(),
	}
}

// Process handles POST /api/process.
// It extracts fields from one uploaded document and responds inline.
// Extraction-level failures still answer 200: the error record travels
// in the data payload so batch and single-document shapes stay uniform.
func (h *ProcessHandler) Process(c *gin.Context) {
	var req model.ProcessRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid process request")
		middleware.HandleError(c, bindError(err))
		return
	}

	if err := validateUpload(req.File.Filename, req.File.Size); err != nil {
		middleware.HandleError(c, err)
		return
	}

	data, err := readUpload(req.File)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read uploaded file")
		middleware.HandleError(c, middleware.NewInternalError("failed to read uploaded file"))
		return
	}

	outcome := h.invoiceService.ProcessBytes(c.Request.Context(), data, req.File.Filename)

	resp := processResponse(req.File.Filename, outcome)
	h.logger.WithFields(logrus.Fields{
		"filename": req.File.Filename,
		"status":   resp.Status,
	}).Info("Document processed")

	c.JSON(http.StatusOK, resp)
}

// ProcessBatch handles POST /api/process-batch.
// All files from the multipart field "files" are processed concurrently
// and results are returned in upload order.
func (h *ProcessHandler) ProcessBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid multipart form", err.Error()))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		middleware.HandleError(c, middleware.NewValidationError("at least one file is required"))
		return
	}

	docs := make([]services.BatchDocument, len(files))
	resp := model.BatchResponse{
		Status:  "success",
		Total:   len(files),
		Results: make([]model.ProcessResponse, len(files)),
	}

	// Validation failures become positional error results rather than
	// rejecting the whole batch.
	skipped := make([]bool, len(files))
	for i, file := range files {
		if vErr := validateUpload(file.Filename, file.Size); vErr != nil {
			appErr := vErr.(middleware.AppError)
			resp.Results[i] = model.ProcessResponse{
				Status:   "error",
				Filename: file.Filename,
				Data:     gin.H{"error": appErr.Message, "details": appErr.Details},
			}
			skipped[i] = true
			continue
		}
		data, rErr := readUpload(file)
		if rErr != nil {
			resp.Results[i] = model.ProcessResponse{
				Status:   "error",
				Filename: file.Filename,
				Data:     gin.H{"error": "failed to read uploaded file", "details": rErr.Error()},
			}
			skipped[i] = true
			continue
		}
		docs[i] = services.BatchDocument{Data: data, Filename: file.Filename}
	}

	outcomes := h.invoiceService.ProcessBatch(c.Request.Context(), docs)

	for i := range files {
		if !skipped[i] {
			resp.Results[i] = processResponse(files[i].Filename, outcomes[i])
		}
		if resp.Results[i].Status == "success" {
			resp.Successful++
		} else {
			resp.Failed++
		}
	}

	h.logger.WithFields(logrus.Fields{
		"total":      resp.Total,
		"successful": resp.Successful,
		"failed":     resp.Failed,
	}).Info("Batch processed")

	c.JSON(http.StatusOK, resp)
}

// Patterns handles GET /api/patterns.
// It reports the loaded rule inventory and the active weight version.
func (h *ProcessHandler) Patterns(c *gin.Context) {
	extractor := h.invoiceService.Extractor()
	weights := extractor.WeightSnapshot()

	resp := model.PatternsResponse{
		WeightVersion: weights.Version,
		Fields:        make([]model.FieldPatterns, 0, len(extractor.Fields())),
	}
	for _, def := range extractor.Fields() {
		resp.Fields = append(resp.Fields, model.FieldPatterns{
			Name:      def.Name,
			Policy:    string(def.Policy),
			Mandatory: def.Mandatory,
			Rules:     len(def.Rules),
		})
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// processResponse converts a document outcome into the wire shape.
func processResponse(filename string, outcome extract.Outcome) model.ProcessResponse {
	if outcome.OK() {
		return model.ProcessResponse{
			Status:   "success",
			Filename: filename,
			Data:     outcome.Record,
		}
	}
	return model.ProcessResponse{
		Status:   "error",
		Filename: filename,
		Data:     outcome.Failure,
	}
}

// bindError converts upload binding failures into the matching
// validation error.
func bindError(err error) middleware.AppError {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, fe := range vErrs {
			if fe.Tag() == "docfile" {
				return middleware.NewValidationError("unsupported file type", "supported types: .pdf, .txt, .md")
			}
		}
	}
	return middleware.NewValidationError("file is required", err.Error())
}

// validateUpload enforces the size limit and supported extensions.
func validateUpload(filename string, size int64) error {
	if size > MaxUploadSize {
		return middleware.NewValidationError("file too large", "maximum upload size is 10MB")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf", ".txt", ".md", ".markdown":
		return nil
	}
	return middleware.NewValidationError("unsupported file type", "supported types: .pdf, .txt, .md")
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
