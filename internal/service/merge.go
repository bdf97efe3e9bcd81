package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	"github.com/smallsteps/kindergarten-api/internal/models"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
)

// timeSlotNormalizer strips whitespace and folds dash variants so that time
// ranges compare byte-for-byte. Every merge/lookup key in the template and
// override layers relies on this normalisation.
var timeSlotNormalizer = strings.NewReplacer(
	" ", "", "\t", "",
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
)

// NormalizeTimeSlot canonicalises a "HH:MM-HH:MM" range string.
func NormalizeTimeSlot(raw string) string {
	return timeSlotNormalizer.Replace(strings.TrimSpace(raw))
}

// slotStartKey parses the start of a normalised range into a sortable HHMM
// integer. Returns -1 when the slot has no parsable start time.
func slotStartKey(slot string) int {
	start, _, found := strings.Cut(slot, "-")
	if !found {
		start = slot
	}
	digits := strings.ReplaceAll(start, ":", "")
	if digits == "" {
		return -1
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return -1
	}
	return value
}

// classAgeFromName extracts the numeric age from a class name's leading
// digits ("3A" -> 3).
func classAgeFromName(name string) int {
	trimmed := strings.TrimSpace(name)
	end := 0
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	age, err := strconv.Atoi(trimmed[:end])
	if err != nil {
		return 0
	}
	return age
}

// curriculumIndex resolves draft activity names back to curriculum entries.
type curriculumIndex struct {
	flexible map[string]models.CurriculumActivity
	fixed    []models.CurriculumActivity
}

func buildCurriculumIndex(activities []models.CurriculumActivity) curriculumIndex {
	idx := curriculumIndex{flexible: make(map[string]models.CurriculumActivity)}
	for _, activity := range activities {
		if !activity.Active {
			continue
		}
		if activity.Fixed {
			idx.fixed = append(idx.fixed, activity)
			continue
		}
		idx.flexible[flexibleKey(activity.Name, activity.Age)] = activity
	}
	return idx
}

func flexibleKey(name, age string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + age
}

func (idx curriculumIndex) resolveFlexible(name string, age int) (models.CurriculumActivity, bool) {
	activity, ok := idx.flexible[flexibleKey(name, strconv.Itoa(age))]
	return activity, ok
}

func (idx curriculumIndex) fixedForAge(age int) []models.CurriculumActivity {
	var result []models.CurriculumActivity
	for _, activity := range idx.fixed {
		if activity.AppliesToAge(age) {
			result = append(result, activity)
		}
	}
	return result
}

// MergeDraft combines the generator's flexible placements with the fixed
// activities applicable to each class's age into a single time-sorted list
// per weekday. Flexible names that resolve to no curriculum entry keep an
// empty CurriculumID; persistence rejects those rows later. Two slots
// sharing a normalised time on one day fail the merge outright.
func MergeDraft(draft dto.GeneratedDraft, activities []models.CurriculumActivity) ([]dto.ClassWeeklySchedule, error) {
	idx := buildCurriculumIndex(activities)

	classNames := make([]string, 0, len(draft))
	for name := range draft {
		classNames = append(classNames, name)
	}
	sort.Strings(classNames)

	merged := make([]dto.ClassWeeklySchedule, 0, len(classNames))
	for _, className := range classNames {
		age := classAgeFromName(className)
		fixed := idx.fixedForAge(age)
		days := make(map[string][]dto.MergedSlot, 5)

		for _, weekday := range models.WeekdayNames() {
			slots := make([]dto.MergedSlot, 0, len(draft[className][weekday])+len(fixed))

			for _, placed := range draft[className][weekday] {
				slot := dto.MergedSlot{
					TimeSlot: NormalizeTimeSlot(placed.Time),
					Name:     strings.TrimSpace(placed.Name),
				}
				if activity, ok := idx.resolveFlexible(placed.Name, age); ok {
					slot.CurriculumID = activity.ID
					slot.Name = activity.Name
				}
				slots = append(slots, slot)
			}

			for _, activity := range fixed {
				if activity.StartTime == "" || activity.EndTime == "" {
					continue
				}
				slots = append(slots, dto.MergedSlot{
					TimeSlot:     NormalizeTimeSlot(activity.StartTime + "-" + activity.EndTime),
					Fixed:        true,
					CurriculumID: activity.ID,
					Name:         activity.Name,
				})
			}

			kept := slots[:0]
			for _, slot := range slots {
				if slot.TimeSlot == "" {
					continue
				}
				kept = append(kept, slot)
			}
			slots = kept

			sort.SliceStable(slots, func(i, j int) bool {
				return slotStartKey(slots[i].TimeSlot) < slotStartKey(slots[j].TimeSlot)
			})

			if err := checkSlotCollisions(className, weekday, slots); err != nil {
				return nil, err
			}
			days[weekday] = slots
		}

		merged = append(merged, dto.ClassWeeklySchedule{ClassName: className, Days: days})
	}
	return merged, nil
}

func checkSlotCollisions(className, weekday string, slots []dto.MergedSlot) error {
	seen := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		if _, dup := seen[slot.TimeSlot]; dup {
			return appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("class %s has two activities at %s on %s", className, slot.TimeSlot, weekday))
		}
		seen[slot.TimeSlot] = struct{}{}
	}
	return nil
}
