package models

import "time"

// Weekday names used as weekly-template keys. Templates cover Monday-Friday.
const (
	Monday    = "Monday"
	Tuesday   = "Tuesday"
	Wednesday = "Wednesday"
	Thursday  = "Thursday"
	Friday    = "Friday"
)

// WeekdayNames returns the template weekdays in calendar order.
func WeekdayNames() [5]string {
	return [5]string{Monday, Tuesday, Wednesday, Thursday, Friday}
}

// IsTemplateWeekday reports whether the given name is a Monday-Friday key.
func IsTemplateWeekday(name string) bool {
	switch name {
	case Monday, Tuesday, Wednesday, Thursday, Friday:
		return true
	}
	return false
}

// WeeklyTemplate is the canonical per-class, per-school-year schedule.
type WeeklyTemplate struct {
	ID         string    `db:"id" json:"id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// TemplateSlot is one scheduled activity on one weekday of a template.
// TimeSlot is stored normalised ("HH:MM-HH:MM", no whitespace, ASCII dash).
type TemplateSlot struct {
	ID           string `db:"id" json:"id"`
	TemplateID   string `db:"template_id" json:"template_id"`
	Weekday      string `db:"weekday" json:"weekday"`
	TimeSlot     string `db:"time_slot" json:"time_slot"`
	Fixed        bool   `db:"fixed" json:"fixed"`
	CurriculumID string `db:"curriculum_id" json:"curriculum_id"`

	// Display fields populated by joins on read paths.
	CurriculumName string `db:"curriculum_name" json:"curriculum_name,omitempty"`
	CurriculumAge  string `db:"curriculum_age" json:"curriculum_age,omitempty"`
}

// EffectiveSlot is a template slot viewed through a concrete calendar date,
// with any daily override already applied. Derived, never stored.
type EffectiveSlot struct {
	TimeSlot       string `json:"time_slot"`
	Fixed          bool   `json:"fixed"`
	CurriculumID   string `json:"curriculum_id"`
	CurriculumName string `json:"curriculum_name,omitempty"`
	IsSwapped      bool   `json:"is_swapped"`
}
