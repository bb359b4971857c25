// Package pattern normalizes a therapist's raw recurring-availability
// configuration into a canonical form the availability resolver can query.
// Normalization never fails: unset or unusable fields collapse to inert
// defaults that constrain nothing.
package pattern

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/core/rules"
)

// Pattern is the canonical form of a work pattern
type Pattern struct {
	Works       map[time.Weekday]bool
	Never       map[time.Weekday]bool
	Rotation    model.RotationMode
	Anchor      time.Time // Saturday anchoring the weekend rotation
	Enforcement model.EnforcementMode
	Preference  model.ShiftPreference

	weekendRule *rrule.RRule
}

// Normalize converts a raw work pattern (possibly nil, possibly with every
// field unset) into its canonical form. A rotation whose anchor date cannot
// be parsed normalizes to no rotation at all.
func Normalize(raw *model.WorkPattern) Pattern {
	p := Pattern{
		Works:       make(map[time.Weekday]bool),
		Never:       make(map[time.Weekday]bool),
		Rotation:    model.RotationNone,
		Enforcement: model.EnforceHard,
		Preference:  model.PreferEither,
	}
	if raw == nil {
		return p
	}

	for _, d := range raw.WorksWeekdays {
		if d >= 0 && d <= 6 {
			p.Works[time.Weekday(d)] = true
		}
	}
	for _, d := range raw.NeverWeekdays {
		if d >= 0 && d <= 6 {
			p.Never[time.Weekday(d)] = true
		}
	}

	if raw.Enforcement == model.EnforceSoft {
		p.Enforcement = model.EnforceSoft
	}
	if raw.ShiftPreference == model.PreferDay || raw.ShiftPreference == model.PreferNight {
		p.Preference = raw.ShiftPreference
	}

	if raw.Rotation == model.RotationEveryOther {
		anchor, err := rules.ParseDate(raw.AnchorSaturday)
		if err == nil {
			p.Rotation = model.RotationEveryOther
			p.Anchor = priorSaturday(anchor)
			rule, err := rrule.NewRRule(rrule.ROption{
				Freq:      rrule.WEEKLY,
				Interval:  2,
				Byweekday: []rrule.Weekday{rrule.SA},
				Dtstart:   p.Anchor,
			})
			if err == nil {
				p.weekendRule = rule
			}
		}
	}

	return p
}

// HasWorksDays reports whether the pattern restricts work to specific weekdays
func (p Pattern) HasWorksDays() bool {
	return len(p.Works) > 0
}

// OffRotationWeekend reports whether the date falls on a weekend the
// therapist sits out. The anchor Saturday's weekend is a working weekend;
// parity alternates every week from there, in both directions.
func (p Pattern) OffRotationWeekend(date time.Time) bool {
	if p.Rotation != model.RotationEveryOther {
		return false
	}
	wd := date.Weekday()
	if wd != time.Saturday && wd != time.Sunday {
		return false
	}

	sat := date
	if wd == time.Sunday {
		sat = date.AddDate(0, 0, -1)
	}

	return !p.onRotation(sat)
}

func (p Pattern) onRotation(saturday time.Time) bool {
	if saturday.Before(p.Anchor) {
		weeks := int(p.Anchor.Sub(saturday).Hours()) / (24 * 7)
		return weeks%2 == 0
	}
	if p.weekendRule == nil {
		return true
	}
	hits := p.weekendRule.Between(saturday, saturday, true)
	return len(hits) > 0
}

// priorSaturday snaps a date to the Saturday opening its weekend: Saturdays
// stay put, every other day (Sunday included) walks back to the most recent
// Saturday
func priorSaturday(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 1) % 7
	return t.AddDate(0, 0, -offset)
}
