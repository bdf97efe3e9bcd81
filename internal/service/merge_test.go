package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	"github.com/smallsteps/kindergarten-api/internal/models"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
)

func TestNormalizeTimeSlot(t *testing.T) {
	cases := map[string]string{
		"09:00-09:30":     "09:00-09:30",
		" 09:00 - 09:30 ": "09:00-09:30",
		"09:00–09:30": "09:00-09:30", // en dash
		"09:00—09:30": "09:00-09:30", // em dash
		"09:00−09:30": "09:00-09:30", // minus sign
		"\t9:00 -9:30":     "9:00-9:30",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeTimeSlot(in), "input %q", in)
	}
}

func TestSlotStartKey(t *testing.T) {
	assert.Equal(t, 900, slotStartKey("9:00-9:30"))
	assert.Equal(t, 1330, slotStartKey("13:30-14:00"))
	assert.Equal(t, -1, slotStartKey(""))
	assert.Equal(t, -1, slotStartKey("noon-13:00"))
}

func TestClassAgeFromName(t *testing.T) {
	assert.Equal(t, 3, classAgeFromName("3A"))
	assert.Equal(t, 5, classAgeFromName("5B"))
	assert.Equal(t, 12, classAgeFromName("12X"))
	assert.Equal(t, 0, classAgeFromName("Sunshine"))
}

func mergeFixtures() []models.CurriculumActivity {
	return []models.CurriculumActivity{
		{ID: "cur-math", Name: "Math", Age: "3", Active: true, WeeklyLessonCount: 3},
		{ID: "cur-art", Name: "Art", Age: "3", Active: true, WeeklyLessonCount: 2},
		{ID: "cur-math-4", Name: "Math", Age: "4", Active: true, WeeklyLessonCount: 3},
		{ID: "cur-lunch", Name: "Lunch", Age: models.AgeAll, Fixed: true, Active: true, StartTime: "12:00", EndTime: "13:00"},
		{ID: "cur-nap", Name: "Nap", Age: "3", Fixed: true, Active: true, StartTime: "13:00", EndTime: "14:00"},
		{ID: "cur-gone", Name: "Retired", Age: "3", Active: false},
	}
}

func singleDayDraft(class string, activities ...dto.DraftActivity) dto.GeneratedDraft {
	return dto.GeneratedDraft{class: dto.ClassDraft{models.Monday: activities}}
}

func TestMergeDraftCombinesFlexibleAndFixed(t *testing.T) {
	draft := singleDayDraft("3A",
		dto.DraftActivity{Name: "Math", Time: "09:00 - 09:30"},
		dto.DraftActivity{Name: "Art", Time: "10:00-10:30"},
	)

	merged, err := MergeDraft(draft, mergeFixtures())
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "3A", merged[0].ClassName)

	monday := merged[0].Days[models.Monday]
	require.Len(t, monday, 4)
	assert.Equal(t, "09:00-09:30", monday[0].TimeSlot)
	assert.Equal(t, "cur-math", monday[0].CurriculumID)
	assert.Equal(t, "cur-art", monday[1].CurriculumID)
	assert.Equal(t, "Lunch", monday[2].Name)
	assert.True(t, monday[2].Fixed)
	assert.Equal(t, "Nap", monday[3].Name)
}

func TestMergeDraftFixedOnEveryWeekday(t *testing.T) {
	draft := dto.GeneratedDraft{"3A": dto.ClassDraft{}}

	merged, err := MergeDraft(draft, mergeFixtures())
	require.NoError(t, err)
	for _, weekday := range models.WeekdayNames() {
		slots := merged[0].Days[weekday]
		require.Len(t, slots, 2, weekday)
		assert.Equal(t, "12:00-13:00", slots[0].TimeSlot)
		assert.Equal(t, "13:00-14:00", slots[1].TimeSlot)
	}
}

func TestMergeDraftFixedScopedByAge(t *testing.T) {
	// A 4-year-old class gets the all-ages lunch but not the age-3 nap.
	draft := dto.GeneratedDraft{"4A": dto.ClassDraft{}}

	merged, err := MergeDraft(draft, mergeFixtures())
	require.NoError(t, err)
	monday := merged[0].Days[models.Monday]
	require.Len(t, monday, 1)
	assert.Equal(t, "Lunch", monday[0].Name)
}

func TestMergeDraftUnresolvedNameKeepsEmptyID(t *testing.T) {
	draft := singleDayDraft("3A", dto.DraftActivity{Name: "Quantum Physics", Time: "09:00-09:30"})

	merged, err := MergeDraft(draft, mergeFixtures())
	require.NoError(t, err)
	monday := merged[0].Days[models.Monday]
	require.NotEmpty(t, monday)
	assert.Empty(t, monday[0].CurriculumID)
	assert.Equal(t, "Quantum Physics", monday[0].Name)
}

func TestMergeDraftResolutionIsAgeScoped(t *testing.T) {
	// "Math" exists for ages 3 and 4; a 4-year-old class must get the age-4 row.
	draft := singleDayDraft("4A", dto.DraftActivity{Name: "math", Time: "09:00-09:30"})

	merged, err := MergeDraft(draft, mergeFixtures())
	require.NoError(t, err)
	assert.Equal(t, "cur-math-4", merged[0].Days[models.Monday][0].CurriculumID)
}

func TestMergeDraftDropsEmptyTimes(t *testing.T) {
	draft := singleDayDraft("3A",
		dto.DraftActivity{Name: "Math", Time: "   "},
		dto.DraftActivity{Name: "Art", Time: "10:00-10:30"},
	)

	merged, err := MergeDraft(draft, mergeFixtures())
	require.NoError(t, err)
	monday := merged[0].Days[models.Monday]
	for _, slot := range monday {
		assert.NotEmpty(t, slot.TimeSlot)
	}
}

func TestMergeDraftRejectsCollisions(t *testing.T) {
	// Draft places a flexible slot on top of the fixed lunch.
	draft := singleDayDraft("3A", dto.DraftActivity{Name: "Art", Time: "12:00 – 13:00"})

	_, err := MergeDraft(draft, mergeFixtures())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Contains(t, err.Error(), "3A")
}

func TestMergeDraftSortsByStartTime(t *testing.T) {
	draft := singleDayDraft("3A",
		dto.DraftActivity{Name: "Art", Time: "15:00-15:30"},
		dto.DraftActivity{Name: "Math", Time: "9:00-9:30"},
	)

	merged, err := MergeDraft(draft, mergeFixtures())
	require.NoError(t, err)
	monday := merged[0].Days[models.Monday]
	previous := -1
	for _, slot := range monday {
		key := slotStartKey(slot.TimeSlot)
		assert.GreaterOrEqual(t, key, previous)
		previous = key
	}
}

func TestMergeDraftOrdersClassesByName(t *testing.T) {
	draft := dto.GeneratedDraft{
		"3B": dto.ClassDraft{},
		"3A": dto.ClassDraft{},
		"4A": dto.ClassDraft{},
	}

	merged, err := MergeDraft(draft, mergeFixtures())
	require.NoError(t, err)
	require.Len(t, merged, 3)
	assert.Equal(t, "3A", merged[0].ClassName)
	assert.Equal(t, "3B", merged[1].ClassName)
	assert.Equal(t, "4A", merged[2].ClassName)
}
