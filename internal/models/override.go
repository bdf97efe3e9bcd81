package models

import "time"

// DailyOverride is a sparse exception layered over the weekly template,
// keyed by (class, calendar date, normalised time slot). Absent rows mean
// "use the template". Overrides are only ever written in pairs by the swap
// protocol and never target fixed slots.
type DailyOverride struct {
	ID           string    `db:"id" json:"id"`
	ClassID      string    `db:"class_id" json:"class_id"`
	Date         time.Time `db:"date" json:"date"`
	TimeSlot     string    `db:"time_slot" json:"time_slot"`
	CurriculumID string    `db:"curriculum_id" json:"curriculum_id"`
	Fixed        bool      `db:"fixed" json:"fixed"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Populated by joins on read paths.
	CurriculumName string `db:"curriculum_name" json:"curriculum_name,omitempty"`
}
