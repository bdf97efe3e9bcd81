package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	"github.com/smallsteps/kindergarten-api/internal/generator"
	"github.com/smallsteps/kindergarten-api/internal/models"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
)

type timetableClassRepository interface {
	ListActiveByYear(ctx context.Context, schoolYear string) ([]models.Class, error)
	FindByNameYear(ctx context.Context, name, schoolYear string) (*models.Class, error)
}

type timetableCurriculumRepository interface {
	ListActive(ctx context.Context) ([]models.CurriculumActivity, error)
	ListActiveFixed(ctx context.Context) ([]models.CurriculumActivity, error)
}

type timetableTemplateRepository interface {
	Replace(ctx context.Context, exec sqlx.ExtContext, classID, schoolYear string, slots []models.TemplateSlot) (string, error)
	FindByClassYear(ctx context.Context, classID, schoolYear string) (*models.WeeklyTemplate, error)
	ExistsForYear(ctx context.Context, schoolYear string) (bool, error)
	SlotsByTemplate(ctx context.Context, templateID string) ([]models.TemplateSlot, error)
}

type scheduleCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableService composes weekly templates: it aggregates curriculum for
// the draft generator, merges drafts with fixed activities, and persists the
// results per class.
type TimetableService struct {
	classes    timetableClassRepository
	curriculum timetableCurriculumRepository
	templates  timetableTemplateRepository
	drafts     generator.Client
	cache      scheduleCacheInvalidator
	tx         txProvider
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	classes timetableClassRepository,
	curriculum timetableCurriculumRepository,
	templates timetableTemplateRepository,
	drafts generator.Client,
	cache scheduleCacheInvalidator,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		classes:    classes,
		curriculum: curriculum,
		templates:  templates,
		drafts:     drafts,
		cache:      cache,
		tx:         tx,
		validator:  validate,
		logger:     logger,
		metrics:    metrics,
	}
}

// buildGeneratorInput groups active classes by age and attaches each group's
// flexible activities. Groups missing either classes or activities are
// omitted so the generator never sees an empty bucket.
func (s *TimetableService) buildGeneratorInput(ctx context.Context, schoolYear string) (dto.GeneratorInput, error) {
	classes, err := s.classes.ListActiveByYear(ctx, schoolYear)
	if err != nil {
		return dto.GeneratorInput{}, err
	}
	activities, err := s.curriculum.ListActive(ctx)
	if err != nil {
		return dto.GeneratorInput{}, err
	}

	classesByAge := make(map[int][]string)
	for _, class := range classes {
		classesByAge[class.Age] = append(classesByAge[class.Age], class.Name)
	}

	flexibleByAge := make(map[int][]dto.GeneratorActivity)
	for _, activity := range activities {
		if activity.Fixed {
			continue
		}
		age, err := strconv.Atoi(activity.Age)
		if err != nil {
			continue
		}
		flexibleByAge[age] = append(flexibleByAge[age], dto.GeneratorActivity{
			Name:              activity.Name,
			WeeklyLessonCount: activity.WeeklyLessonCount,
		})
	}

	input := dto.GeneratorInput{SchoolYear: schoolYear}
	for _, group := range models.AgeGroups() {
		names := classesByAge[group.Age]
		flexible := flexibleByAge[group.Age]
		if len(names) == 0 || len(flexible) == 0 {
			continue
		}
		sort.Strings(names)
		input.Groups = append(input.Groups, dto.GeneratorGroup{
			Age:        group.Age,
			Key:        group.Key,
			Label:      group.Label,
			Classes:    names,
			Activities: flexible,
		})
	}
	return input, nil
}

// CurriculumOverview returns the exact grouping the draft generator would be
// prompted with for a school year.
func (s *TimetableService) CurriculumOverview(ctx context.Context, schoolYear string) (*dto.CurriculumOverviewResponse, error) {
	if schoolYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schoolYear is required")
	}
	input, err := s.buildGeneratorInput(ctx, schoolYear)
	if err != nil {
		return nil, err
	}
	return &dto.CurriculumOverviewResponse{SchoolYear: input.SchoolYear, Groups: input.Groups}, nil
}

// FixedActivities returns the active fixed-time activities ordered by start
// time.
func (s *TimetableService) FixedActivities(ctx context.Context) ([]models.CurriculumActivity, error) {
	return s.curriculum.ListActiveFixed(ctx)
}

// Generate prompts the external generator with the aggregated curriculum and
// merges its draft with the fixed activities of every class.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate request")
	}

	input, err := s.buildGeneratorInput(ctx, req.SchoolYear)
	if err != nil {
		return nil, err
	}
	if len(input.Groups) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("no classes with flexible curriculum for %s", req.SchoolYear))
	}

	started := time.Now()
	draft, err := s.drafts.GenerateDraft(ctx, input)
	s.metrics.ObserveDraftGeneration(time.Since(started), err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("draft generated",
		zap.String("school_year", req.SchoolYear),
		zap.Int("classes", len(draft)),
		zap.Duration("took", time.Since(started)))

	activities, err := s.curriculum.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	merged, err := MergeDraft(draft, activities)
	if err != nil {
		return nil, err
	}
	return &dto.GenerateTimetableResponse{SchoolYear: req.SchoolYear, Classes: merged}, nil
}

// Exists reports whether any weekly template has been stored for the year.
func (s *TimetableService) Exists(ctx context.Context, schoolYear string) (bool, error) {
	if schoolYear == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "schoolYear is required")
	}
	return s.templates.ExistsForYear(ctx, schoolYear)
}

// Save persists each class's merged week as its weekly template. Classes are
// independent: one class failing validation or persistence never blocks the
// others, and a class with any invalid slot is rejected whole rather than
// partially written.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save request")
	}

	response := &dto.SaveTimetableResponse{SchoolYear: req.SchoolYear}
	for _, schedule := range req.Classes {
		result := dto.ClassSaveResult{ClassName: schedule.ClassName, Status: dto.SaveStatusSaved}
		if err := s.saveClass(ctx, req.SchoolYear, schedule); err != nil {
			result.Status = dto.SaveStatusFailed
			var classErr *classSaveError
			if errors.As(err, &classErr) {
				result.Errors = classErr.reasons
			} else {
				result.Errors = []string{err.Error()}
			}
			s.logger.Warn("class timetable rejected",
				zap.String("class", schedule.ClassName),
				zap.Strings("errors", result.Errors))
		}
		response.Results = append(response.Results, result)
	}
	return response, nil
}

// classSaveError carries every validation reason for one rejected class.
type classSaveError struct {
	reasons []string
}

func (e *classSaveError) Error() string {
	if len(e.reasons) == 0 {
		return "class rejected"
	}
	return e.reasons[0]
}

func (s *TimetableService) saveClass(ctx context.Context, schoolYear string, schedule dto.ClassWeeklySchedule) error {
	class, err := s.classes.FindByNameYear(ctx, schedule.ClassName, schoolYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &classSaveError{reasons: []string{fmt.Sprintf("class %s not found for %s", schedule.ClassName, schoolYear)}}
		}
		return err
	}

	slots, reasons := buildTemplateSlots(schedule)
	if len(reasons) > 0 {
		return &classSaveError{reasons: reasons}
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	if _, err := s.templates.Replace(ctx, tx, class.ID, schoolYear, slots); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, scheduleCachePattern(class.ID)); err != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.String("class_id", class.ID), zap.Error(err))
		}
	}
	return nil
}

// buildTemplateSlots flattens a merged week into slot rows, collecting every
// validation failure instead of stopping at the first.
func buildTemplateSlots(schedule dto.ClassWeeklySchedule) ([]models.TemplateSlot, []string) {
	var slots []models.TemplateSlot
	var reasons []string

	for weekday := range schedule.Days {
		if !models.IsTemplateWeekday(weekday) {
			reasons = append(reasons, fmt.Sprintf("unknown weekday %q", weekday))
		}
	}

	for _, weekday := range models.WeekdayNames() {
		seen := make(map[string]struct{})
		for _, slot := range schedule.Days[weekday] {
			timeSlot := NormalizeTimeSlot(slot.TimeSlot)
			if timeSlot == "" {
				continue
			}
			if slot.CurriculumID == "" {
				reasons = append(reasons, fmt.Sprintf("unresolved activity %q at %s on %s", slot.Name, timeSlot, weekday))
				continue
			}
			if _, dup := seen[timeSlot]; dup {
				reasons = append(reasons, fmt.Sprintf("duplicate time slot %s on %s", timeSlot, weekday))
				continue
			}
			seen[timeSlot] = struct{}{}
			slots = append(slots, models.TemplateSlot{
				Weekday:      weekday,
				TimeSlot:     timeSlot,
				Fixed:        slot.Fixed,
				CurriculumID: slot.CurriculumID,
			})
		}
	}
	return slots, reasons
}

// Template returns the stored weekly template of one class as a merged-week
// view, slots sorted by start time within each weekday.
func (s *TimetableService) Template(ctx context.Context, className, schoolYear string) (*dto.ClassWeeklySchedule, error) {
	if className == "" || schoolYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class and schoolYear are required")
	}

	class, err := s.classes.FindByNameYear(ctx, className, schoolYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found for %s", className, schoolYear))
		}
		return nil, err
	}
	template, err := s.templates.FindByClassYear(ctx, class.ID, schoolYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no timetable stored for %s in %s", className, schoolYear))
		}
		return nil, err
	}
	slots, err := s.templates.SlotsByTemplate(ctx, template.ID)
	if err != nil {
		return nil, err
	}

	days := make(map[string][]dto.MergedSlot, 5)
	for _, weekday := range models.WeekdayNames() {
		days[weekday] = []dto.MergedSlot{}
	}
	for _, slot := range slots {
		days[slot.Weekday] = append(days[slot.Weekday], dto.MergedSlot{
			TimeSlot:     slot.TimeSlot,
			Fixed:        slot.Fixed,
			CurriculumID: slot.CurriculumID,
			Name:         slot.CurriculumName,
		})
	}
	for weekday := range days {
		sortSlotsByStart(days[weekday])
	}
	return &dto.ClassWeeklySchedule{ClassName: class.Name, Days: days}, nil
}

func sortSlotsByStart(slots []dto.MergedSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return slotStartKey(slots[i].TimeSlot) < slotStartKey(slots[j].TimeSlot)
	})
}

// scheduleCachePattern matches every cached resolution for one class.
func scheduleCachePattern(classID string) string {
	return "timetable:*:" + classID + ":*"
}
