package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/k-telecom/pdf-parser/internal/database"
	"github.com/k-telecom/pdf-parser/internal/models"
)

// jobRepository is the gorm-backed JobRepository.
type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a repository on the shared database handle.
func NewJobRepository() JobRepository {
	return &jobRepository{db: database.MustDB()}
}

// NewJobRepositoryWithDB creates a repository on an explicit handle,
// used by tests and the worker process.
func NewJobRepositoryWithDB(db *gorm.DB) JobRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(job *models.Job) error {
	if job.ID == "" {
		return errors.New("job ID cannot be empty")
	}
	return r.db.Create(job).Error
}

func (r *jobRepository) Update(job *models.Job) error {
	if job.ID == "" {
		return errors.New("job ID cannot be empty")
	}
	return r.db.Save(job).Error
}

func (r *jobRepository) GetByID(id string) (*models.Job, error) {
	var job models.Job
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) List(offset, limit int, status models.JobStatus) ([]*models.Job, int64, error) {
	var jobs []*models.Job
	var total int64

	query := r.db.Model(&models.Job{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

func (r *jobRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Job{}).Error
}

func (r *jobRepository) UpdateStatus(id string, status models.JobStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	now := time.Now()
	switch status {
	case models.JobStatusProcessing:
		updates["started_at"] = &now
	case models.JobStatusCompleted, models.JobStatusFailed:
		updates["finished_at"] = &now
	}

	result := r.db.Model(&models.Job{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrJobNotFound
	}
	return nil
}

func (r *jobRepository) SetResult(id string, result []byte) error {
	now := time.Now()
	res := r.db.Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"result":      result,
			"status":      models.JobStatusCompleted,
			"finished_at": &now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrJobNotFound
	}
	return nil
}
