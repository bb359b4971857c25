// Package availability resolves whether a therapist can work a given date
// and shift type. It folds active/FMLA status, the normalized work pattern,
// and any date-scoped overrides into a single allow/block decision with a
// specific reason code.
//
// The precedence between sources is an ordering contract: earlier checks are
// stronger than later ones, and the first matching check wins. The chain is
// kept as an explicit ordered slice so the contract is visible and testable
// in isolation.
package availability

import (
	"time"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/core/pattern"
	"github.com/harborview-rehab/scheduler/pkg/core/rules"
)

// Reason is a machine-readable availability reason code
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonInactive        Reason = "inactive"
	ReasonOnFMLA          Reason = "on_fmla"
	ReasonForceOff        Reason = "override_force_off"
	ReasonOffsDOW         Reason = "blocked_offs_dow"
	ReasonOffWeekend      Reason = "blocked_every_other_weekend"
	ReasonOutsideWorksDOW Reason = "blocked_outside_works_dow_hard"
	ReasonForceOn         Reason = "override_force_on"
)

// Label returns the human-readable form surfaced in conflict payloads
func (r Reason) Label() string {
	switch r {
	case ReasonInactive:
		return "Inactive"
	case ReasonOnFMLA:
		return "On FMLA"
	case ReasonForceOff:
		return "Force off override"
	case ReasonOffsDOW:
		return "Blocked day of week"
	case ReasonOffWeekend:
		return "Off-rotation weekend"
	case ReasonOutsideWorksDOW:
		return "Outside working days"
	case ReasonForceOn:
		return "Explicitly available"
	default:
		return ""
	}
}

// Decision is the resolver's verdict for one (therapist, date, shift type)
type Decision struct {
	Allowed bool
	Reason  Reason

	// Hard marks a block that cannot be overridden through this engine
	// (the therapist must be reactivated / taken off FMLA first). Soft
	// blocks may be overridden with a manager-confirmed reason.
	Hard bool
}

// SoftBlocked reports whether the decision is a block a manager may override
func (d Decision) SoftBlocked() bool {
	return !d.Allowed && !d.Hard
}

// request carries the resolved inputs through the check chain
type request struct {
	user      model.User
	pat       pattern.Pattern
	date      time.Time
	dateStr   string
	shiftType model.ShiftType
	overrides []model.AvailabilityOverride
}

// check is one predicate/reason pair in the precedence chain
type check struct {
	reason  Reason
	hard    bool
	allowed bool // force_on matches but does not block
	match   func(req request) bool
}

// chain is evaluated top to bottom; the first matching check wins
var chain = []check{
	{reason: ReasonInactive, hard: true, match: func(req request) bool {
		return !req.user.Active
	}},
	{reason: ReasonOnFMLA, hard: true, match: func(req request) bool {
		return req.user.OnFMLA
	}},
	{reason: ReasonForceOff, match: func(req request) bool {
		return hasOverride(req, model.ForceOff)
	}},
	{reason: ReasonOffsDOW, match: func(req request) bool {
		return req.pat.Never[req.date.Weekday()]
	}},
	{reason: ReasonOffWeekend, match: func(req request) bool {
		return req.pat.OffRotationWeekend(req.date)
	}},
	{reason: ReasonOutsideWorksDOW, match: func(req request) bool {
		return req.pat.HasWorksDays() &&
			req.pat.Enforcement == model.EnforceHard &&
			!req.pat.Works[req.date.Weekday()]
	}},
	{reason: ReasonForceOn, allowed: true, match: func(req request) bool {
		return hasOverride(req, model.ForceOn)
	}},
}

func hasOverride(req request, kind model.OverrideType) bool {
	for _, o := range req.overrides {
		if o.Date == req.dateStr && o.Type == kind && o.Matches(req.shiftType) {
			return true
		}
	}
	return false
}

// Resolve decides whether the therapist may work the given date and shift
// type. overrides should already be scoped to the cycle and therapist; rows
// for other dates are ignored. The result is deterministic for identical
// inputs.
func Resolve(user model.User, pat pattern.Pattern, date string, shiftType model.ShiftType, overrides []model.AvailabilityOverride) (Decision, error) {
	parsed, err := rules.ParseDate(date)
	if err != nil {
		return Decision{}, err
	}

	req := request{
		user:      user,
		pat:       pat,
		date:      parsed,
		dateStr:   date,
		shiftType: shiftType,
		overrides: overrides,
	}

	for _, c := range chain {
		if c.match(req) {
			return Decision{Allowed: c.allowed, Reason: c.reason, Hard: c.hard}, nil
		}
	}

	return Decision{Allowed: true}, nil
}
