// Package rules holds the pure constraint primitives behind the shift
// engine: slot coverage limits, weekly shift limits, and the week
// arithmetic they share. Everything here is deterministic and store-free.
package rules

import (
	"fmt"
	"time"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
)

// DateLayout is the civil-date format used at every storage boundary
const DateLayout = "2006-01-02"

const (
	// MaxSlotCoverage is the hard ceiling on staffed shifts per slot
	MaxSlotCoverage = 5

	// MinHealthyCoverage classifies a slot as understaffed for warning
	// purposes. It never rejects a mutation.
	MinHealthyCoverage = 2

	// Default weekly shift limits by employment type
	DefaultWeeklyLimitFullTime = 3
	DefaultWeeklyLimitPartTime = 3
	DefaultWeeklyLimitPRN      = 1

	// Bounds on a per-therapist configured weekly limit
	MinWeeklyLimit = 1
	MaxWeeklyLimit = 7
)

// ParseDate parses a civil date in the storage layout
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// CountsTowardStaffing reports whether a shift with the given status counts
// toward slot coverage and the weekly limit. Sick and called-off shifts
// occupy the row but not the headcount.
func CountsTowardStaffing(status model.ShiftStatus) bool {
	return status == model.StatusScheduled || status == model.StatusOnCall
}

// ExceedsCoverage reports whether adding one more shift to a slot that
// currently has currentCount staffed shifts would break the max
func ExceedsCoverage(currentCount, max int) bool {
	return currentCount >= max
}

// WeeklyLimitFor resolves a therapist's effective weekly shift limit:
// the configured per-therapist value when it is within bounds, otherwise
// the employment-type default.
func WeeklyLimitFor(user model.User) int {
	if user.WeeklyLimit >= MinWeeklyLimit && user.WeeklyLimit <= MaxWeeklyLimit {
		return user.WeeklyLimit
	}
	switch user.Employment {
	case model.PRN:
		return DefaultWeeklyLimitPRN
	case model.PartTime:
		return DefaultWeeklyLimitPartTime
	default:
		return DefaultWeeklyLimitFullTime
	}
}

// WeekBounds returns the Sunday-start week containing t as an inclusive
// [start, end] pair of civil dates
func WeekBounds(t time.Time) (time.Time, time.Time) {
	start := t.AddDate(0, 0, -int(t.Weekday()))
	end := start.AddDate(0, 0, 6)
	return start, end
}

// ExceedsWeekly reports whether working targetDate would push the therapist
// past their weekly limit. workedDates are the civil dates of the
// therapist's staffed shifts; only distinct dates in targetDate's week
// count, plus one for targetDate itself when not already present.
func ExceedsWeekly(workedDates []string, targetDate string, limit int) (bool, error) {
	target, err := ParseDate(targetDate)
	if err != nil {
		return false, err
	}

	weekStart, weekEnd := WeekBounds(target)
	startStr := weekStart.Format(DateLayout)
	endStr := weekEnd.Format(DateLayout)

	inWeek := make(map[string]bool)
	for _, d := range workedDates {
		if d >= startStr && d <= endStr {
			inWeek[d] = true
		}
	}

	count := len(inWeek)
	if !inWeek[targetDate] {
		count++
	}

	return count > limit, nil
}
