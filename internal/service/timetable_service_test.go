package service

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	"github.com/smallsteps/kindergarten-api/internal/models"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
)

type stubClassRepo struct {
	classes []models.Class
}

func (s *stubClassRepo) ListActiveByYear(_ context.Context, schoolYear string) ([]models.Class, error) {
	var out []models.Class
	for _, class := range s.classes {
		if class.SchoolYear == schoolYear && class.Active {
			out = append(out, class)
		}
	}
	return out, nil
}

func (s *stubClassRepo) FindByNameYear(_ context.Context, name, schoolYear string) (*models.Class, error) {
	for i := range s.classes {
		if s.classes[i].Name == name && s.classes[i].SchoolYear == schoolYear {
			return &s.classes[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubClassRepo) FindByID(_ context.Context, id string) (*models.Class, error) {
	for i := range s.classes {
		if s.classes[i].ID == id {
			return &s.classes[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type stubCurriculumRepo struct {
	activities []models.CurriculumActivity
}

func (s *stubCurriculumRepo) ListActive(context.Context) ([]models.CurriculumActivity, error) {
	return s.activities, nil
}

func (s *stubCurriculumRepo) ListActiveFixed(context.Context) ([]models.CurriculumActivity, error) {
	var out []models.CurriculumActivity
	for _, activity := range s.activities {
		if activity.Fixed && activity.Active {
			out = append(out, activity)
		}
	}
	return out, nil
}

type stubTemplateRepo struct {
	replaceCalls int
	replaceErr   error
	saved        map[string][]models.TemplateSlot
	templates    map[string]*models.WeeklyTemplate
	slots        []models.TemplateSlot
	exists       bool
}

func (s *stubTemplateRepo) Replace(_ context.Context, _ sqlx.ExtContext, classID, _ string, slots []models.TemplateSlot) (string, error) {
	s.replaceCalls++
	if s.replaceErr != nil {
		return "", s.replaceErr
	}
	if s.saved == nil {
		s.saved = make(map[string][]models.TemplateSlot)
	}
	s.saved[classID] = slots
	return "tpl-" + classID, nil
}

func (s *stubTemplateRepo) FindByClassYear(_ context.Context, classID, schoolYear string) (*models.WeeklyTemplate, error) {
	if tpl, ok := s.templates[classID+"|"+schoolYear]; ok {
		return tpl, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubTemplateRepo) ExistsForYear(context.Context, string) (bool, error) {
	return s.exists, nil
}

func (s *stubTemplateRepo) SlotsByTemplate(context.Context, string) ([]models.TemplateSlot, error) {
	return s.slots, nil
}

type stubDraftGenerator struct {
	input dto.GeneratorInput
	draft dto.GeneratedDraft
	err   error
}

func (s *stubDraftGenerator) GenerateDraft(_ context.Context, input dto.GeneratorInput) (dto.GeneratedDraft, error) {
	s.input = input
	return s.draft, s.err
}

type stubCacheInvalidator struct {
	patterns []string
}

func (s *stubCacheInvalidator) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func newTxMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func timetableFixtureClasses() []models.Class {
	return []models.Class{
		{ID: "class-3a", Name: "3A", Age: 3, SchoolYear: "2025-2026", Active: true},
		{ID: "class-3b", Name: "3B", Age: 3, SchoolYear: "2025-2026", Active: true},
		{ID: "class-4a", Name: "4A", Age: 4, SchoolYear: "2025-2026", Active: true},
	}
}

func TestTimetableServiceCurriculumOverview(t *testing.T) {
	classes := &stubClassRepo{classes: timetableFixtureClasses()}
	curriculum := &stubCurriculumRepo{activities: []models.CurriculumActivity{
		{ID: "cur-math", Name: "Math", Age: "3", Active: true, WeeklyLessonCount: 3},
		{ID: "cur-lunch", Name: "Lunch", Age: models.AgeAll, Fixed: true, Active: true, StartTime: "12:00", EndTime: "13:00"},
	}}
	svc := NewTimetableService(classes, curriculum, &stubTemplateRepo{}, nil, nil, nil, nil, nil, nil)

	overview, err := svc.CurriculumOverview(context.Background(), "2025-2026")
	require.NoError(t, err)
	// Age 4 has classes but no flexible activities, so only the junior
	// group survives; the fixed lunch never reaches the generator.
	require.Len(t, overview.Groups, 1)
	group := overview.Groups[0]
	assert.Equal(t, 3, group.Age)
	assert.Equal(t, "junior", group.Key)
	assert.Equal(t, []string{"3A", "3B"}, group.Classes)
	require.Len(t, group.Activities, 1)
	assert.Equal(t, "Math", group.Activities[0].Name)
}

func TestTimetableServiceCurriculumOverviewRequiresYear(t *testing.T) {
	svc := NewTimetableService(&stubClassRepo{}, &stubCurriculumRepo{}, &stubTemplateRepo{}, nil, nil, nil, nil, nil, nil)

	_, err := svc.CurriculumOverview(context.Background(), "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestTimetableServiceGenerate(t *testing.T) {
	classes := &stubClassRepo{classes: timetableFixtureClasses()}
	curriculum := &stubCurriculumRepo{activities: []models.CurriculumActivity{
		{ID: "cur-math", Name: "Math", Age: "3", Active: true, WeeklyLessonCount: 3},
		{ID: "cur-lunch", Name: "Lunch", Age: models.AgeAll, Fixed: true, Active: true, StartTime: "12:00", EndTime: "13:00"},
	}}
	drafts := &stubDraftGenerator{draft: dto.GeneratedDraft{
		"3A": dto.ClassDraft{models.Monday: []dto.DraftActivity{{Name: "Math", Time: "09:00-09:30"}}},
	}}
	svc := NewTimetableService(classes, curriculum, &stubTemplateRepo{}, drafts, nil, nil, nil, nil, nil)

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SchoolYear: "2025-2026"})
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", drafts.input.SchoolYear)
	require.Len(t, resp.Classes, 1)

	monday := resp.Classes[0].Days[models.Monday]
	require.Len(t, monday, 2)
	assert.Equal(t, "cur-math", monday[0].CurriculumID)
	assert.True(t, monday[1].Fixed)
}

func TestTimetableServiceGenerateWithoutGroups(t *testing.T) {
	svc := NewTimetableService(&stubClassRepo{}, &stubCurriculumRepo{}, &stubTemplateRepo{}, &stubDraftGenerator{}, nil, nil, nil, nil, nil)

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SchoolYear: "2025-2026"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestTimetableServiceSave(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	classes := &stubClassRepo{classes: timetableFixtureClasses()}
	templates := &stubTemplateRepo{}
	cache := &stubCacheInvalidator{}
	svc := NewTimetableService(classes, &stubCurriculumRepo{}, templates, nil, cache, db, nil, nil, nil)

	req := dto.SaveTimetableRequest{
		SchoolYear: "2025-2026",
		Classes: []dto.ClassWeeklySchedule{{
			ClassName: "3A",
			Days: map[string][]dto.MergedSlot{
				models.Monday: {
					{TimeSlot: "09:00-09:30", CurriculumID: "cur-math", Name: "Math"},
					{TimeSlot: "12:00-13:00", CurriculumID: "cur-lunch", Fixed: true, Name: "Lunch"},
				},
			},
		}},
	}
	resp, err := svc.Save(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, dto.SaveStatusSaved, resp.Results[0].Status)

	require.Len(t, templates.saved["class-3a"], 2)
	assert.Equal(t, []string{"timetable:*:class-3a:*"}, cache.patterns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceSaveRejectsUnresolvedSlots(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()

	classes := &stubClassRepo{classes: timetableFixtureClasses()}
	templates := &stubTemplateRepo{}
	svc := NewTimetableService(classes, &stubCurriculumRepo{}, templates, nil, nil, db, nil, nil, nil)

	req := dto.SaveTimetableRequest{
		SchoolYear: "2025-2026",
		Classes: []dto.ClassWeeklySchedule{{
			ClassName: "3A",
			Days: map[string][]dto.MergedSlot{
				models.Monday: {
					{TimeSlot: "09:00-09:30", CurriculumID: "cur-math"},
					{TimeSlot: "10:00-10:30", Name: "Quantum Physics"},
				},
			},
		}},
	}
	resp, err := svc.Save(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, dto.SaveStatusFailed, resp.Results[0].Status)
	require.NotEmpty(t, resp.Results[0].Errors)
	assert.Contains(t, resp.Results[0].Errors[0], "Quantum Physics")

	// A class with one bad slot writes nothing at all.
	assert.Zero(t, templates.replaceCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceSavePartialBatch(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	classes := &stubClassRepo{classes: timetableFixtureClasses()}
	templates := &stubTemplateRepo{}
	svc := NewTimetableService(classes, &stubCurriculumRepo{}, templates, nil, nil, db, nil, nil, nil)

	req := dto.SaveTimetableRequest{
		SchoolYear: "2025-2026",
		Classes: []dto.ClassWeeklySchedule{
			{ClassName: "Ghost", Days: map[string][]dto.MergedSlot{}},
			{ClassName: "3B", Days: map[string][]dto.MergedSlot{
				models.Friday: {{TimeSlot: "09:00-09:30", CurriculumID: "cur-art"}},
			}},
		},
	}
	resp, err := svc.Save(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, dto.SaveStatusFailed, resp.Results[0].Status)
	assert.Equal(t, dto.SaveStatusSaved, resp.Results[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceSaveRollsBackOnRepoError(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	classes := &stubClassRepo{classes: timetableFixtureClasses()}
	templates := &stubTemplateRepo{replaceErr: assert.AnError}
	svc := NewTimetableService(classes, &stubCurriculumRepo{}, templates, nil, nil, db, nil, nil, nil)

	req := dto.SaveTimetableRequest{
		SchoolYear: "2025-2026",
		Classes: []dto.ClassWeeklySchedule{{
			ClassName: "3A",
			Days: map[string][]dto.MergedSlot{
				models.Monday: {{TimeSlot: "09:00-09:30", CurriculumID: "cur-math"}},
			},
		}},
	}
	resp, err := svc.Save(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, dto.SaveStatusFailed, resp.Results[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceExists(t *testing.T) {
	svc := NewTimetableService(&stubClassRepo{}, &stubCurriculumRepo{}, &stubTemplateRepo{exists: true}, nil, nil, nil, nil, nil, nil)

	exists, err := svc.Exists(context.Background(), "2025-2026")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = svc.Exists(context.Background(), "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestTimetableServiceTemplate(t *testing.T) {
	classes := &stubClassRepo{classes: timetableFixtureClasses()}
	templates := &stubTemplateRepo{
		templates: map[string]*models.WeeklyTemplate{
			"class-3a|2025-2026": {ID: "tpl-1", ClassID: "class-3a", SchoolYear: "2025-2026"},
		},
		slots: []models.TemplateSlot{
			{Weekday: models.Monday, TimeSlot: "12:00-13:00", Fixed: true, CurriculumID: "cur-lunch", CurriculumName: "Lunch"},
			{Weekday: models.Monday, TimeSlot: "9:00-9:30", CurriculumID: "cur-math", CurriculumName: "Math"},
		},
	}
	svc := NewTimetableService(classes, &stubCurriculumRepo{}, templates, nil, nil, nil, nil, nil, nil)

	schedule, err := svc.Template(context.Background(), "3A", "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, "3A", schedule.ClassName)

	monday := schedule.Days[models.Monday]
	require.Len(t, monday, 2)
	// Parsed start order, not lexicographic: 9:00 before 12:00.
	assert.Equal(t, "Math", monday[0].Name)
	assert.Equal(t, "Lunch", monday[1].Name)
	assert.Empty(t, schedule.Days[models.Friday])
}

func TestTimetableServiceTemplateNotFound(t *testing.T) {
	classes := &stubClassRepo{classes: timetableFixtureClasses()}
	svc := NewTimetableService(classes, &stubCurriculumRepo{}, &stubTemplateRepo{}, nil, nil, nil, nil, nil, nil)

	_, err := svc.Template(context.Background(), "3A", "2025-2026")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Template(context.Background(), "Ghost", "2025-2026")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
