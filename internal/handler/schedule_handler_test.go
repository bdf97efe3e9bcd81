package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	"github.com/smallsteps/kindergarten-api/internal/models"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
)

type scheduleServiceMock struct {
	day     *dto.EffectiveDayResponse
	dayErr  error
	week    *dto.EffectiveWeekResponse
	weekErr error
	swap    *dto.SwapResponse
	swapErr error
}

func (m *scheduleServiceMock) EffectiveDay(context.Context, string, string) (*dto.EffectiveDayResponse, error) {
	return m.day, m.dayErr
}

func (m *scheduleServiceMock) EffectiveWeek(context.Context, string, int, int) (*dto.EffectiveWeekResponse, error) {
	return m.week, m.weekErr
}

func (m *scheduleServiceMock) Swap(context.Context, dto.SwapRequest) (*dto.SwapResponse, error) {
	return m.swap, m.swapErr
}

func TestScheduleHandlerDay(t *testing.T) {
	mock := &scheduleServiceMock{day: &dto.EffectiveDayResponse{
		ClassID: "class-3a",
		Day: dto.EffectiveDay{
			Date:    "2026-03-02",
			Weekday: "Monday",
			Slots:   []models.EffectiveSlot{{TimeSlot: "09:00-09:30", CurriculumID: "cur-math", IsSwapped: true}},
		},
	}}
	h := NewScheduleHandler(mock)

	c, w := testContext(t, http.MethodGet, "/schedule/day?classId=class-3a&date=2026-03-02", nil)
	h.Day(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_swapped":true`)
}

func TestScheduleHandlerDayWeekend(t *testing.T) {
	mock := &scheduleServiceMock{dayErr: appErrors.Clone(appErrors.ErrValidation, "2026-03-07 falls on a Saturday, schedules cover Monday-Friday")}
	h := NewScheduleHandler(mock)

	c, w := testContext(t, http.MethodGet, "/schedule/day?classId=class-3a&date=2026-03-07", nil)
	h.Day(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerWeek(t *testing.T) {
	mock := &scheduleServiceMock{week: &dto.EffectiveWeekResponse{ClassID: "class-3a", Year: 2026, Week: 10}}
	h := NewScheduleHandler(mock)

	c, w := testContext(t, http.MethodGet, "/schedule/week?classId=class-3a&year=2026&week=10", nil)
	h.Week(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleHandlerWeekRejectsNonNumeric(t *testing.T) {
	h := NewScheduleHandler(&scheduleServiceMock{})

	c, w := testContext(t, http.MethodGet, "/schedule/week?classId=class-3a&year=twenty&week=10", nil)
	h.Week(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = testContext(t, http.MethodGet, "/schedule/week?classId=class-3a&year=2026&week=ten", nil)
	h.Week(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerSwap(t *testing.T) {
	mock := &scheduleServiceMock{swap: &dto.SwapResponse{ClassID: "class-3a"}}
	h := NewScheduleHandler(mock)

	c, w := testContext(t, http.MethodPost, "/schedule/swap", dto.SwapRequest{
		ClassID: "class-3a",
		Date1:   "2026-03-02", Time1: "09:00-09:30",
		Date2:   "2026-03-03", Time2: "09:00-09:30",
	})
	h.Swap(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleHandlerSwapFixedConflict(t *testing.T) {
	mock := &scheduleServiceMock{swapErr: appErrors.Clone(appErrors.ErrConflict, "fixed activities cannot be swapped")}
	h := NewScheduleHandler(mock)

	c, w := testContext(t, http.MethodPost, "/schedule/swap", dto.SwapRequest{
		ClassID: "class-3a",
		Date1:   "2026-03-02", Time1: "12:00-13:00",
		Date2:   "2026-03-03", Time2: "09:00-09:30",
	})
	h.Swap(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
