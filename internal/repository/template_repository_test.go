package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallsteps/kindergarten-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTemplateRepositoryReplace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO weekly_templates")).
		WithArgs(sqlmock.AnyArg(), "class-1", "2025-2026").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tpl-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM template_slots WHERE template_id = $1")).
		WithArgs("tpl-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO template_slots")).
		WithArgs(sqlmock.AnyArg(), "tpl-1", models.Monday, "09:00-09:30", false, "cur-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO template_slots")).
		WithArgs(sqlmock.AnyArg(), "tpl-1", models.Monday, "12:00-13:00", true, "cur-2").
		WillReturnResult(sqlmock.NewResult(1, 1))

	slots := []models.TemplateSlot{
		{Weekday: models.Monday, TimeSlot: "09:00-09:30", CurriculumID: "cur-1"},
		{Weekday: models.Monday, TimeSlot: "12:00-13:00", Fixed: true, CurriculumID: "cur-2"},
	}
	templateID, err := repo.Replace(context.Background(), db, "class-1", "2025-2026", slots)
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", templateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryExistsForYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM weekly_templates WHERE school_year = $1)")).
		WithArgs("2025-2026").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForYear(context.Background(), "2025-2026")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositorySlotsByClassWeekday(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	rows := sqlmock.NewRows([]string{"id", "template_id", "weekday", "time_slot", "fixed", "curriculum_id", "curriculum_name", "curriculum_age"}).
		AddRow("slot-1", "tpl-1", models.Monday, "09:00-09:30", false, "cur-1", "Math", "3").
		AddRow("slot-2", "tpl-1", models.Monday, "12:00-13:00", true, "cur-2", "Lunch", "All")
	mock.ExpectQuery("SELECT s.id, s.template_id").
		WithArgs("class-1", "2025-2026", models.Monday).
		WillReturnRows(rows)

	slots, err := repo.SlotsByClassWeekday(context.Background(), "class-1", "2025-2026", models.Monday)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "Math", slots[0].CurriculumName)
	assert.True(t, slots[1].Fixed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO daily_overrides")).
		WithArgs(sqlmock.AnyArg(), "class-1", date, "09:00-09:30", "cur-2", false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	override := &models.DailyOverride{
		ClassID:      "class-1",
		Date:         date,
		TimeSlot:     "09:00-09:30",
		CurriculumID: "cur-2",
	}
	require.NoError(t, repo.Upsert(context.Background(), db, override))
	assert.NotEmpty(t, override.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryListByClassDateRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	from := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 4)
	rows := sqlmock.NewRows([]string{"id", "class_id", "date", "time_slot", "curriculum_id", "fixed", "created_at", "updated_at", "curriculum_name"}).
		AddRow("ovr-1", "class-1", from, "09:00-09:30", "cur-2", false, time.Now(), time.Now(), "Art")
	mock.ExpectQuery("SELECT o.id, o.class_id").
		WithArgs("class-1", from, to).
		WillReturnRows(rows)

	overrides, err := repo.ListByClassDateRange(context.Background(), "class-1", from, to)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "Art", overrides[0].CurriculumName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
