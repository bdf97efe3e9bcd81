package models

import (
	"strconv"
	"time"
)

// AgeAll marks a curriculum activity that applies to every age group.
const AgeAll = "All"

// CurriculumActivity is a curriculum item. Fixed activities carry an explicit
// clock time applied identically every weekday; flexible activities carry a
// weekly lesson count and are placed by the draft generator.
type CurriculumActivity struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Age               string    `db:"age" json:"age"`
	Fixed             bool      `db:"fixed" json:"fixed"`
	WeeklyLessonCount int       `db:"weekly_lesson_count" json:"weekly_lesson_count"`
	StartTime         string    `db:"start_time" json:"start_time"`
	EndTime           string    `db:"end_time" json:"end_time"`
	Active            bool      `db:"active" json:"active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// AppliesToAge reports whether the activity's age scope covers the given
// numeric class age.
func (a CurriculumActivity) AppliesToAge(age int) bool {
	if a.Age == AgeAll {
		return true
	}
	return a.Age == strconv.Itoa(age)
}

// AgeGroup is one bucket of the closed five-group enumeration (ages 1-5).
type AgeGroup struct {
	Age   int    `json:"age"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

var ageGroups = [5]AgeGroup{
	{Age: 1, Key: "nursery", Label: "Nursery Group"},
	{Age: 2, Key: "toddler", Label: "Toddler Group"},
	{Age: 3, Key: "junior", Label: "Junior Group"},
	{Age: 4, Key: "middle", Label: "Middle Group"},
	{Age: 5, Key: "senior", Label: "Senior Group"},
}

// AgeGroups returns the fixed enumeration in ascending age order.
func AgeGroups() [5]AgeGroup {
	return ageGroups
}

// AgeGroupForAge resolves the bucket for a numeric age.
func AgeGroupForAge(age int) (AgeGroup, bool) {
	if age < 1 || age > 5 {
		return AgeGroup{}, false
	}
	return ageGroups[age-1], true
}
