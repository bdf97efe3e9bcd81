package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smallsteps/kindergarten-api/internal/models"
)

// TemplateRepository provides persistence for weekly timetable templates and
// their slots.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Replace upserts the weekly template for a class and school year and swaps
// its slot set for the given one. The caller owns the transaction; exec is
// expected to be the open tx so the whole replacement commits or rolls back
// as one unit.
func (r *TemplateRepository) Replace(ctx context.Context, exec sqlx.ExtContext, classID, schoolYear string, slots []models.TemplateSlot) (string, error) {
	const upsertTemplate = `
		INSERT INTO weekly_templates (id, class_id, school_year, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (class_id, school_year)
		DO UPDATE SET updated_at = NOW()
		RETURNING id`

	var templateID string
	if err := sqlx.GetContext(ctx, exec, &templateID, upsertTemplate, uuid.NewString(), classID, schoolYear); err != nil {
		return "", fmt.Errorf("upsert weekly template: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `DELETE FROM template_slots WHERE template_id = $1`, templateID); err != nil {
		return "", fmt.Errorf("clear template slots: %w", err)
	}

	const insertSlot = `
		INSERT INTO template_slots (id, template_id, weekday, time_slot, fixed, curriculum_id, created_at)
		VALUES (:id, :template_id, :weekday, :time_slot, :fixed, :curriculum_id, NOW())`

	for i := range slots {
		slots[i].ID = uuid.NewString()
		slots[i].TemplateID = templateID
		if _, err := sqlx.NamedExecContext(ctx, exec, insertSlot, &slots[i]); err != nil {
			return "", fmt.Errorf("insert template slot: %w", err)
		}
	}
	return templateID, nil
}

// FindByClassYear loads the template header for a class and school year.
func (r *TemplateRepository) FindByClassYear(ctx context.Context, classID, schoolYear string) (*models.WeeklyTemplate, error) {
	const query = `SELECT id, class_id, school_year, created_at, updated_at FROM weekly_templates WHERE class_id = $1 AND school_year = $2`
	var template models.WeeklyTemplate
	if err := r.db.GetContext(ctx, &template, query, classID, schoolYear); err != nil {
		return nil, err
	}
	return &template, nil
}

// ExistsForYear reports whether any class already has a stored template for
// the school year.
func (r *TemplateRepository) ExistsForYear(ctx context.Context, schoolYear string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM weekly_templates WHERE school_year = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, schoolYear); err != nil {
		return false, fmt.Errorf("check template exists: %w", err)
	}
	return exists, nil
}

// SlotsByTemplate returns a template's slots joined with their curriculum
// entries, ordered by weekday then raw time slot. Callers re-sort by parsed
// start time where display order matters.
func (r *TemplateRepository) SlotsByTemplate(ctx context.Context, templateID string) ([]models.TemplateSlot, error) {
	const query = `
		SELECT s.id, s.template_id, s.weekday, s.time_slot, s.fixed, s.curriculum_id,
		       COALESCE(c.name, '') AS curriculum_name,
		       COALESCE(c.age, '') AS curriculum_age
		FROM template_slots s
		LEFT JOIN curriculum_activities c ON c.id = s.curriculum_id
		WHERE s.template_id = $1
		ORDER BY s.weekday ASC, s.time_slot ASC`
	var slots []models.TemplateSlot
	if err := r.db.SelectContext(ctx, &slots, query, templateID); err != nil {
		return nil, fmt.Errorf("list template slots: %w", err)
	}
	return slots, nil
}

// SlotsByClassWeekday returns the stored slots for one class on one template
// weekday within a school year.
func (r *TemplateRepository) SlotsByClassWeekday(ctx context.Context, classID, schoolYear, weekday string) ([]models.TemplateSlot, error) {
	const query = `
		SELECT s.id, s.template_id, s.weekday, s.time_slot, s.fixed, s.curriculum_id,
		       COALESCE(c.name, '') AS curriculum_name,
		       COALESCE(c.age, '') AS curriculum_age
		FROM template_slots s
		JOIN weekly_templates t ON t.id = s.template_id
		LEFT JOIN curriculum_activities c ON c.id = s.curriculum_id
		WHERE t.class_id = $1 AND t.school_year = $2 AND s.weekday = $3
		ORDER BY s.time_slot ASC`
	var slots []models.TemplateSlot
	if err := r.db.SelectContext(ctx, &slots, query, classID, schoolYear, weekday); err != nil {
		return nil, fmt.Errorf("list weekday slots: %w", err)
	}
	return slots, nil
}
