package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
	"github.com/smallsteps/kindergarten-api/pkg/response"
)

type scheduleService interface {
	EffectiveDay(ctx context.Context, classID, date string) (*dto.EffectiveDayResponse, error)
	EffectiveWeek(ctx context.Context, classID string, year, week int) (*dto.EffectiveWeekResponse, error)
	Swap(ctx context.Context, req dto.SwapRequest) (*dto.SwapResponse, error)
}

// ScheduleHandler exposes effective-schedule resolution endpoints.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler builds a new handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Day godoc
// @Summary Effective schedule of one class on one date
// @Tags Schedule
// @Produce json
// @Param classId query string true "Class ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedule/day [get]
func (h *ScheduleHandler) Day(c *gin.Context) {
	day, err := h.service.EffectiveDay(c.Request.Context(), c.Query("classId"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}

// Week godoc
// @Summary Effective schedule of one class for a numbered week
// @Tags Schedule
// @Produce json
// @Param classId query string true "Class ID"
// @Param year query int true "Calendar year"
// @Param week query int true "Week number (1-53)"
// @Success 200 {object} response.Envelope
// @Router /schedule/week [get]
func (h *ScheduleHandler) Week(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be an integer"))
		return
	}
	week, err := strconv.Atoi(c.Query("week"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be an integer"))
		return
	}
	result, err := h.service.EffectiveWeek(c.Request.Context(), c.Query("classId"), year, week)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Swap godoc
// @Summary Swap the activities of two slots
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.SwapRequest true "Swap payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/swap [post]
func (h *ScheduleHandler) Swap(c *gin.Context) {
	var req dto.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload"))
		return
	}
	result, err := h.service.Swap(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
