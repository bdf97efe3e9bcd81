package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/smallsteps/kindergarten-api/internal/models"
)

// CurriculumRepository provides persistence for curriculum activities.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository creates a new curriculum repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

const curriculumColumns = `id, name, age, fixed, weekly_lesson_count, start_time, end_time, active, created_at, updated_at`

// ListActive returns all active curriculum activities.
func (r *CurriculumRepository) ListActive(ctx context.Context) ([]models.CurriculumActivity, error) {
	query := fmt.Sprintf(`SELECT %s FROM curriculum_activities WHERE active = TRUE ORDER BY name ASC`, curriculumColumns)
	var activities []models.CurriculumActivity
	if err := r.db.SelectContext(ctx, &activities, query); err != nil {
		return nil, fmt.Errorf("list active curriculum: %w", err)
	}
	return activities, nil
}

// ListActiveFixed returns active fixed-time activities ordered by start time.
func (r *CurriculumRepository) ListActiveFixed(ctx context.Context) ([]models.CurriculumActivity, error) {
	query := fmt.Sprintf(`SELECT %s FROM curriculum_activities WHERE active = TRUE AND fixed = TRUE ORDER BY start_time ASC, name ASC`, curriculumColumns)
	var activities []models.CurriculumActivity
	if err := r.db.SelectContext(ctx, &activities, query); err != nil {
		return nil, fmt.Errorf("list fixed curriculum: %w", err)
	}
	return activities, nil
}
