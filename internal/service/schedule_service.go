package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	"github.com/smallsteps/kindergarten-api/internal/models"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
)

type scheduleClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type scheduleTemplateRepository interface {
	FindByClassYear(ctx context.Context, classID, schoolYear string) (*models.WeeklyTemplate, error)
	SlotsByTemplate(ctx context.Context, templateID string) ([]models.TemplateSlot, error)
	SlotsByClassWeekday(ctx context.Context, classID, schoolYear, weekday string) ([]models.TemplateSlot, error)
}

type scheduleOverrideRepository interface {
	ListByClassDate(ctx context.Context, classID string, date time.Time) ([]models.DailyOverride, error)
	ListByClassDateRange(ctx context.Context, classID string, from, to time.Time) ([]models.DailyOverride, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, override *models.DailyOverride) error
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ScheduleService resolves effective daily schedules (template plus
// overrides) and executes the two-sided slot swap protocol.
type ScheduleService struct {
	classes   scheduleClassReader
	templates scheduleTemplateRepository
	overrides scheduleOverrideRepository
	cache     scheduleCache
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	cacheTTL  time.Duration
}

// NewScheduleService wires schedule resolution dependencies.
func NewScheduleService(
	classes scheduleClassReader,
	templates scheduleTemplateRepository,
	overrides scheduleOverrideRepository,
	cache scheduleCache,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
	cacheTTL time.Duration,
) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ScheduleService{
		classes:   classes,
		templates: templates,
		overrides: overrides,
		cache:     cache,
		tx:        tx,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		cacheTTL:  cacheTTL,
	}
}

// EffectiveDay resolves one class's schedule on one calendar date. Weekend
// dates are rejected because templates only cover Monday-Friday.
func (s *ScheduleService) EffectiveDay(ctx context.Context, classID, rawDate string) (*dto.EffectiveDayResponse, error) {
	date, err := ParseDate(rawDate)
	if err != nil {
		return nil, err
	}
	weekday := WeekdayName(date)
	if !models.IsTemplateWeekday(weekday) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s falls on a %s, schedules cover Monday-Friday", rawDate, weekday))
	}

	class, err := s.findClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	slots, err := s.templates.SlotsByClassWeekday(ctx, class.ID, class.SchoolYear, weekday)
	if err != nil {
		return nil, err
	}
	overrides, err := s.overrides.ListByClassDate(ctx, class.ID, date)
	if err != nil {
		return nil, err
	}

	day := dto.EffectiveDay{
		Date:    date.Format(DateLayout),
		Weekday: weekday,
		Slots:   resolveSlots(slots, overrides),
	}
	return &dto.EffectiveDayResponse{ClassID: class.ID, Day: day}, nil
}

// EffectiveWeek resolves the five weekdays of a numbered week in one pass,
// serving repeat reads from Redis until a save or swap invalidates them.
func (s *ScheduleService) EffectiveWeek(ctx context.Context, classID string, year, week int) (*dto.EffectiveWeekResponse, error) {
	dates, err := DatesInWeek(year, week)
	if err != nil {
		return nil, err
	}

	cacheKey := weekCacheKey(classID, year, week)
	if s.cache != nil {
		var cached dto.EffectiveWeekResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("schedule cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
	}

	class, err := s.findClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	slotsByWeekday, err := s.templateWeek(ctx, class)
	if err != nil {
		return nil, err
	}
	overrides, err := s.overrides.ListByClassDateRange(ctx, class.ID, dates[0].Date, dates[len(dates)-1].Date)
	if err != nil {
		return nil, err
	}
	overridesByDate := make(map[string][]models.DailyOverride)
	for _, override := range overrides {
		key := override.Date.Format(DateLayout)
		overridesByDate[key] = append(overridesByDate[key], override)
	}

	response := &dto.EffectiveWeekResponse{ClassID: class.ID, Year: year, Week: week}
	for _, wd := range dates {
		iso := wd.ISO()
		response.Days = append(response.Days, dto.EffectiveDay{
			Date:    iso,
			Weekday: wd.Weekday,
			Slots:   resolveSlots(slotsByWeekday[wd.Weekday], overridesByDate[iso]),
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, response, s.cacheTTL); err != nil {
			s.logger.Warn("schedule cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return response, nil
}

// templateWeek loads the class's full template grouped by weekday. A class
// without a stored template resolves to empty days rather than an error.
func (s *ScheduleService) templateWeek(ctx context.Context, class *models.Class) (map[string][]models.TemplateSlot, error) {
	grouped := make(map[string][]models.TemplateSlot, 5)
	template, err := s.templates.FindByClassYear(ctx, class.ID, class.SchoolYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return grouped, nil
		}
		return nil, err
	}
	slots, err := s.templates.SlotsByTemplate(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		grouped[slot.Weekday] = append(grouped[slot.Weekday], slot)
	}
	return grouped, nil
}

// resolveSlots applies a date's overrides onto that weekday's template slots.
// Overrides match by normalised time slot; an override whose time no longer
// exists in the template is ignored, which implicitly retires overrides left
// behind by a template replacement. Fixed slots are never overridden.
func resolveSlots(slots []models.TemplateSlot, overrides []models.DailyOverride) []models.EffectiveSlot {
	overrideByTime := make(map[string]models.DailyOverride, len(overrides))
	for _, override := range overrides {
		overrideByTime[NormalizeTimeSlot(override.TimeSlot)] = override
	}

	resolved := make([]models.EffectiveSlot, 0, len(slots))
	for _, slot := range slots {
		effective := models.EffectiveSlot{
			TimeSlot:       slot.TimeSlot,
			Fixed:          slot.Fixed,
			CurriculumID:   slot.CurriculumID,
			CurriculumName: slot.CurriculumName,
		}
		if override, ok := overrideByTime[NormalizeTimeSlot(slot.TimeSlot)]; ok && !slot.Fixed {
			effective.CurriculumID = override.CurriculumID
			effective.CurriculumName = override.CurriculumName
			effective.IsSwapped = true
		}
		resolved = append(resolved, effective)
	}
	sort.SliceStable(resolved, func(i, j int) bool {
		return slotStartKey(resolved[i].TimeSlot) < slotStartKey(resolved[j].TimeSlot)
	})
	return resolved
}

// Swap exchanges the curriculum occupying two (date, time) coordinates of one
// class by writing a pair of overrides in a single transaction. Fixed slots
// never move, and a coordinate swapped with itself is rejected.
func (s *ScheduleService) Swap(ctx context.Context, req dto.SwapRequest) (*dto.SwapResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap request")
	}

	first, err := s.swapCoordinate(ctx, req.ClassID, req.Date1, req.Time1)
	if err != nil {
		return nil, err
	}
	second, err := s.swapCoordinate(ctx, req.ClassID, req.Date2, req.Time2)
	if err != nil {
		return nil, err
	}
	if first.date.Equal(second.date) && first.timeSlot == second.timeSlot {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot swap a slot with itself")
	}

	class, err := s.findClass(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}

	slot1, err := s.effectiveAt(ctx, class, first)
	if err != nil {
		return nil, err
	}
	slot2, err := s.effectiveAt(ctx, class, second)
	if err != nil {
		return nil, err
	}
	if slot1.Fixed || slot2.Fixed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "fixed activities cannot be swapped")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin swap tx: %w", err)
	}
	writes := []models.DailyOverride{
		{ClassID: class.ID, Date: first.date, TimeSlot: first.timeSlot, CurriculumID: slot2.CurriculumID},
		{ClassID: class.ID, Date: second.date, TimeSlot: second.timeSlot, CurriculumID: slot1.CurriculumID},
	}
	for i := range writes {
		if err := s.overrides.Upsert(ctx, tx, &writes[i]); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit swap tx: %w", err)
	}
	s.metrics.RecordSwap()

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, scheduleCachePattern(class.ID)); err != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.String("class_id", class.ID), zap.Error(err))
		}
	}
	s.logger.Info("slots swapped",
		zap.String("class_id", class.ID),
		zap.String("first", first.date.Format(DateLayout)+" "+first.timeSlot),
		zap.String("second", second.date.Format(DateLayout)+" "+second.timeSlot))

	return &dto.SwapResponse{
		ClassID: class.ID,
		Slots: []dto.SwappedSlot{
			{Date: first.date.Format(DateLayout), TimeSlot: first.timeSlot, CurriculumID: slot2.CurriculumID, CurriculumName: slot2.CurriculumName},
			{Date: second.date.Format(DateLayout), TimeSlot: second.timeSlot, CurriculumID: slot1.CurriculumID, CurriculumName: slot1.CurriculumName},
		},
	}, nil
}

// swapCoordinate is one validated (date, time) endpoint of a swap.
type swapCoordinate struct {
	date     time.Time
	weekday  string
	timeSlot string
}

func (s *ScheduleService) swapCoordinate(ctx context.Context, classID, rawDate, rawTime string) (swapCoordinate, error) {
	date, err := ParseDate(rawDate)
	if err != nil {
		return swapCoordinate{}, err
	}
	weekday := WeekdayName(date)
	if !models.IsTemplateWeekday(weekday) {
		return swapCoordinate{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s falls on a %s, schedules cover Monday-Friday", rawDate, weekday))
	}
	timeSlot := NormalizeTimeSlot(rawTime)
	if timeSlot == "" {
		return swapCoordinate{}, appErrors.Clone(appErrors.ErrValidation, "time slot is required")
	}
	return swapCoordinate{date: date, weekday: weekday, timeSlot: timeSlot}, nil
}

// effectiveAt resolves the single slot currently occupying a coordinate.
func (s *ScheduleService) effectiveAt(ctx context.Context, class *models.Class, coord swapCoordinate) (models.EffectiveSlot, error) {
	slots, err := s.templates.SlotsByClassWeekday(ctx, class.ID, class.SchoolYear, coord.weekday)
	if err != nil {
		return models.EffectiveSlot{}, err
	}
	overrides, err := s.overrides.ListByClassDate(ctx, class.ID, coord.date)
	if err != nil {
		return models.EffectiveSlot{}, err
	}
	for _, slot := range resolveSlots(slots, overrides) {
		if NormalizeTimeSlot(slot.TimeSlot) == coord.timeSlot {
			return slot, nil
		}
	}
	return models.EffectiveSlot{}, appErrors.Clone(appErrors.ErrNotFound,
		fmt.Sprintf("no activity at %s on %s", coord.timeSlot, coord.date.Format(DateLayout)))
}

func (s *ScheduleService) findClass(ctx context.Context, classID string) (*models.Class, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classId is required")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found", classID))
		}
		return nil, err
	}
	return class, nil
}

func weekCacheKey(classID string, year, week int) string {
	return fmt.Sprintf("timetable:week:%s:%d:%d", classID, year, week)
}
