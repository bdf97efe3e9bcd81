package dto

import "github.com/smallsteps/kindergarten-api/internal/models"

// EffectiveDay is the computed schedule for one class on one calendar date.
type EffectiveDay struct {
	Date    string                 `json:"date"`
	Weekday string                 `json:"weekday"`
	Slots   []models.EffectiveSlot `json:"slots"`
}

// EffectiveDayResponse wraps a single-day resolution.
type EffectiveDayResponse struct {
	ClassID string       `json:"classId"`
	Day     EffectiveDay `json:"day"`
}

// EffectiveWeekResponse carries the five weekday resolutions of one week.
type EffectiveWeekResponse struct {
	ClassID string         `json:"classId"`
	Year    int            `json:"year"`
	Week    int            `json:"week"`
	Days    []EffectiveDay `json:"days"`
}

// SwapRequest exchanges the content of two non-fixed slots across two
// (date, time) coordinates of the same class.
type SwapRequest struct {
	ClassID string `json:"classId" validate:"required"`
	Date1   string `json:"date1" validate:"required"`
	Time1   string `json:"time1" validate:"required"`
	Date2   string `json:"date2" validate:"required"`
	Time2   string `json:"time2" validate:"required"`
}

// SwappedSlot is one side of a completed swap, showing the curriculum now
// occupying the coordinate.
type SwappedSlot struct {
	Date           string `json:"date"`
	TimeSlot       string `json:"timeSlot"`
	CurriculumID   string `json:"curriculumId"`
	CurriculumName string `json:"curriculumName,omitempty"`
}

// SwapResponse reports both coordinates after the swap committed.
type SwapResponse struct {
	ClassID string        `json:"classId"`
	Slots   []SwappedSlot `json:"slots"`
}
