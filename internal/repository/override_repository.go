package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smallsteps/kindergarten-api/internal/models"
)

// OverrideRepository provides persistence for per-day timetable overrides.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository creates a new override repository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

const overrideSelect = `
	SELECT o.id, o.class_id, o.date, o.time_slot, o.curriculum_id, o.fixed,
	       o.created_at, o.updated_at,
	       COALESCE(c.name, '') AS curriculum_name
	FROM daily_overrides o
	LEFT JOIN curriculum_activities c ON c.id = o.curriculum_id`

// ListByClassDate returns the overrides for one class on one calendar date.
func (r *OverrideRepository) ListByClassDate(ctx context.Context, classID string, date time.Time) ([]models.DailyOverride, error) {
	query := overrideSelect + ` WHERE o.class_id = $1 AND o.date = $2 ORDER BY o.time_slot ASC`
	var overrides []models.DailyOverride
	if err := r.db.SelectContext(ctx, &overrides, query, classID, date); err != nil {
		return nil, fmt.Errorf("list overrides by date: %w", err)
	}
	return overrides, nil
}

// ListByClassDateRange returns the overrides for one class across an
// inclusive date range, ordered by date then time slot.
func (r *OverrideRepository) ListByClassDateRange(ctx context.Context, classID string, from, to time.Time) ([]models.DailyOverride, error) {
	query := overrideSelect + ` WHERE o.class_id = $1 AND o.date >= $2 AND o.date <= $3 ORDER BY o.date ASC, o.time_slot ASC`
	var overrides []models.DailyOverride
	if err := r.db.SelectContext(ctx, &overrides, query, classID, from, to); err != nil {
		return nil, fmt.Errorf("list overrides by range: %w", err)
	}
	return overrides, nil
}

// Upsert writes an override keyed by (class, date, time slot), replacing the
// assigned curriculum when the coordinate already has one. exec is expected
// to be an open transaction when the caller writes paired overrides.
func (r *OverrideRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, override *models.DailyOverride) error {
	const query = `
		INSERT INTO daily_overrides (id, class_id, date, time_slot, curriculum_id, fixed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (class_id, date, time_slot)
		DO UPDATE SET curriculum_id = EXCLUDED.curriculum_id,
		              fixed = EXCLUDED.fixed,
		              updated_at = NOW()`
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	if _, err := exec.ExecContext(ctx, query,
		override.ID, override.ClassID, override.Date, override.TimeSlot, override.CurriculumID, override.Fixed); err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// DeleteByClassBefore removes overrides older than the cutoff date. Used by
// housekeeping when a school year's templates are replaced.
func (r *OverrideRepository) DeleteByClassBefore(ctx context.Context, classID string, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM daily_overrides WHERE class_id = $1 AND date < $2`, classID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale overrides: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}
