package models

import "time"

// Class represents a kindergarten class bound to a school year.
// Name carries the age as its leading digits ("3A" is an age-3 class).
type Class struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Age        int       `db:"age" json:"age"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
