package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/smallsteps/kindergarten-api/internal/models"
)

// ClassRepository provides persistence for kindergarten classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListActiveByYear returns active classes for a school year ordered by name.
func (r *ClassRepository) ListActiveByYear(ctx context.Context, schoolYear string) ([]models.Class, error) {
	const query = `SELECT id, name, age, school_year, active, created_at, updated_at FROM classes WHERE school_year = $1 AND active = TRUE ORDER BY name ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, schoolYear); err != nil {
		return nil, fmt.Errorf("list classes by year: %w", err)
	}
	return classes, nil
}

// FindByNameYear loads a class by its unique (name, school year) pair.
func (r *ClassRepository) FindByNameYear(ctx context.Context, name, schoolYear string) (*models.Class, error) {
	const query = `SELECT id, name, age, school_year, active, created_at, updated_at FROM classes WHERE name = $1 AND school_year = $2`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, name, schoolYear); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindByID loads a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, age, school_year, active, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}
