package model

import (
	"encoding/json"
	"time"
)

// Response is the common envelope for transport-level results.
type Response struct {
	Code    int         `json:"code"`               // 0 means success
	Message string      `json:"message"`            // human readable status
	Data    interface{} `json:"data,omitempty"`     // payload, may be empty
	TraceID string      `json:"trace_id,omitempty"` // request trace id
}

// NewSuccessResponse builds a success envelope.
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// ProcessResponse is the synchronous extraction result for one document.
// Data holds either the extracted field record or an error record
// with "error" and "details" keys when the document itself is unreadable.
type ProcessResponse struct {
	Status   string      `json:"status"` // success or error
	Filename string      `json:"filename"`
	Data     interface{} `json:"data"`
}

// BatchResponse aggregates synchronous extraction of several documents.
// Results are positional: Results[i] corresponds to the i-th uploaded file.
type BatchResponse struct {
	Status     string            `json:"status"`
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Results    []ProcessResponse `json:"results"`
}

// JobSubmitResponse acknowledges an asynchronous extraction job.
type JobSubmitResponse struct {
	JobID    string `json:"job_id"`
	FileName string `json:"filename"`
	Status   string `json:"status"`
}

// JobStatusResponse reports the state of one extraction job.
type JobStatusResponse struct {
	JobID     string          `json:"job_id"`
	FileName  string          `json:"filename"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// JobListResponse is a page of jobs.
type JobListResponse struct {
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Jobs     []JobStatusResponse `json:"jobs"`
}

// FieldPatterns describes the rule set loaded for one extraction field.
type FieldPatterns struct {
	Name      string `json:"name"`
	Policy    string `json:"policy"`
	Mandatory bool   `json:"mandatory"`
	Rules     int    `json:"rules"`
}

// PatternsResponse reports the active extraction rule inventory.
type PatternsResponse struct {
	WeightVersion int             `json:"weight_version"`
	Fields        []FieldPatterns `json:"fields"`
}
