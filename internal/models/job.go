package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus tracks an asynchronous extraction job through its lifecycle.
type JobStatus string

const (
	// JobStatusPending means the job is queued and waiting for a worker.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing means a worker picked the job up.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted means extraction finished and Result is set.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed means the job gave up after retries.
	JobStatusFailed JobStatus = "failed"
)

// Job is a persisted asynchronous extraction request. Small documents
// go through the synchronous endpoint; jobs exist for batches uploaded
// by the billing importer that are too slow to hold a request open for.
type Job struct {
	ID         string         `gorm:"primaryKey;size:36"`
	FileName   string         `gorm:"not null"`
	FileType   string         `gorm:"size:20;not null"`
	FilePath   string         `gorm:"not null"` // location in object storage
	FileSize   int64          `gorm:"not null"`
	Status     JobStatus      `gorm:"size:20;not null;index"`
	CreatedAt  time.Time      `gorm:"not null;index"`
	UpdatedAt  time.Time      `gorm:"not null"`
	StartedAt  *time.Time     `gorm:""`
	FinishedAt *time.Time     `gorm:""`
	Result     datatypes.JSON `gorm:"type:json"` // extraction record or error record
	Error      string         `gorm:"type:text"`
	RetryCount int            `gorm:"default:0"`
	TaskID     string         `gorm:"size:50;index"` // queue task id
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	j.UpdatedAt = time.Now()
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	return nil
}

func (j *Job) BeforeUpdate(tx *gorm.DB) error {
	j.UpdatedAt = time.Now()
	return nil
}

func (Job) TableName() string {
	return "jobs"
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
