package dto

// GeneratorActivity is one flexible curriculum item offered to the draft
// generator for an age group.
type GeneratorActivity struct {
	Name              string `json:"name"`
	WeeklyLessonCount int    `json:"weeklyLessonCount"`
}

// GeneratorGroup is one age bucket of the generator input. Groups with no
// qualifying flexible activities are omitted entirely.
type GeneratorGroup struct {
	Age        int                 `json:"age"`
	Key        string              `json:"key"`
	Label      string              `json:"label"`
	Classes    []string            `json:"classes"`
	Activities []GeneratorActivity `json:"activities"`
}

// GeneratorInput is the structured prompt payload sent to the external
// draft-generation service.
type GeneratorInput struct {
	SchoolYear string           `json:"schoolYear"`
	Groups     []GeneratorGroup `json:"groups"`
}

// CurriculumOverviewResponse mirrors GeneratorInput for the admin UI.
type CurriculumOverviewResponse struct {
	SchoolYear string           `json:"schoolYear"`
	Groups     []GeneratorGroup `json:"groups"`
}

// DraftActivity is one activity placement in the generator's raw draft.
type DraftActivity struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// ClassDraft maps weekday name to the flexible activities the generator
// placed on that day.
type ClassDraft map[string][]DraftActivity

// GeneratedDraft maps class name to its drafted week.
type GeneratedDraft map[string]ClassDraft

// GenerateTimetableRequest triggers draft generation and merge for a year.
type GenerateTimetableRequest struct {
	SchoolYear string `json:"schoolYear" validate:"required"`
}

// MergedSlot is one slot of a merged per-day schedule. CurriculumID is empty
// when the draft activity name could not be resolved; persistence rejects
// such slots.
type MergedSlot struct {
	TimeSlot     string `json:"timeSlot"`
	Fixed        bool   `json:"fixed"`
	CurriculumID string `json:"curriculumId"`
	Name         string `json:"name"`
}

// ClassWeeklySchedule is the merged, time-sorted week for one class.
type ClassWeeklySchedule struct {
	ClassName string                  `json:"className"`
	Days      map[string][]MergedSlot `json:"days"`
}

// GenerateTimetableResponse returns the merged draft for every class.
type GenerateTimetableResponse struct {
	SchoolYear string                `json:"schoolYear"`
	Classes    []ClassWeeklySchedule `json:"classes"`
}

// SaveTimetableRequest persists merged class schedules as weekly templates.
type SaveTimetableRequest struct {
	SchoolYear string                `json:"schoolYear" validate:"required"`
	Classes    []ClassWeeklySchedule `json:"classes" validate:"required,min=1"`
}

// Per-class save outcome statuses.
const (
	SaveStatusSaved  = "saved"
	SaveStatusFailed = "failed"
)

// ClassSaveResult reports one class's outcome within a save batch.
type ClassSaveResult struct {
	ClassName string   `json:"className"`
	Status    string   `json:"status"`
	Errors    []string `json:"errors,omitempty"`
}

// SaveTimetableResponse aggregates per-class save outcomes.
type SaveTimetableResponse struct {
	SchoolYear string            `json:"schoolYear"`
	Results    []ClassSaveResult `json:"results"`
}
