package model

import (
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("docfile", validDocFile)
	}
}

// validDocFile accepts uploads with a supported document extension.
func validDocFile(fl validator.FieldLevel) bool {
	file, ok := fl.Field().Interface().(multipart.FileHeader)
	if !ok {
		return false
	}
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".pdf", ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// PaginationRequest is shared by list endpoints.
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"`
}

// GetPage returns the requested page, defaulting to 1.
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize returns the page size, defaulting to 10 and capped at 100.
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// ProcessRequest is a synchronous extraction upload.
type ProcessRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required,docfile"`
}

// JobSubmitRequest is an asynchronous extraction upload.
type JobSubmitRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required,docfile"`
}

// JobStatusRequest fetches one job by id.
type JobStatusRequest struct {
	ID string `uri:"id" binding:"required"`
}

// JobListRequest lists jobs with optional status filtering.
type JobListRequest struct {
	PaginationRequest
	Status string `form:"status" json:"status" binding:"omitempty,oneof=pending processing completed failed"`
}
