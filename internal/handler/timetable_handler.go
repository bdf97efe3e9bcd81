package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	"github.com/smallsteps/kindergarten-api/internal/models"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
	"github.com/smallsteps/kindergarten-api/pkg/response"
)

type timetableService interface {
	CurriculumOverview(ctx context.Context, schoolYear string) (*dto.CurriculumOverviewResponse, error)
	FixedActivities(ctx context.Context) ([]models.CurriculumActivity, error)
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Save(ctx context.Context, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error)
	Exists(ctx context.Context, schoolYear string) (bool, error)
	Template(ctx context.Context, className, schoolYear string) (*dto.ClassWeeklySchedule, error)
}

// TimetableHandler exposes timetable composition endpoints.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler builds a new handler.
func NewTimetableHandler(service timetableService) *TimetableHandler {
	return &TimetableHandler{service: service}
}

// Curriculum godoc
// @Summary Curriculum grouped by age for draft generation
// @Tags Timetable
// @Produce json
// @Param schoolYear query string true "School year"
// @Success 200 {object} response.Envelope
// @Router /timetable/curriculum [get]
func (h *TimetableHandler) Curriculum(c *gin.Context) {
	overview, err := h.service.CurriculumOverview(c.Request.Context(), c.Query("schoolYear"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Fixed godoc
// @Summary List active fixed-time activities
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/fixed [get]
func (h *TimetableHandler) Fixed(c *gin.Context) {
	activities, err := h.service.FixedActivities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil)
}

// Generate godoc
// @Summary Generate a merged weekly timetable draft for every class
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Persist merged timetables as weekly templates
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimetableRequest true "Save payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/save [post]
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	result, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Exists godoc
// @Summary Check whether templates exist for a school year
// @Tags Timetable
// @Produce json
// @Param schoolYear query string true "School year"
// @Success 200 {object} response.Envelope
// @Router /timetable/exists [get]
func (h *TimetableHandler) Exists(c *gin.Context) {
	exists, err := h.service.Exists(c.Request.Context(), c.Query("schoolYear"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"exists": exists}, nil)
}

// Template godoc
// @Summary Stored weekly template of one class
// @Tags Timetable
// @Produce json
// @Param class query string true "Class name"
// @Param schoolYear query string true "School year"
// @Success 200 {object} response.Envelope
// @Router /timetable/template [get]
func (h *TimetableHandler) Template(c *gin.Context) {
	schedule, err := h.service.Template(c.Request.Context(), c.Query("class"), c.Query("schoolYear"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}
