// Package engine is the shift mutation orchestrator: the single entry point
// through which every assign / move / remove / set_lead request flows. Each
// request is one complete transition — validate, authorize, resolve
// availability, check limits, then perform exactly one mutating store call —
// so a rejection at any step leaves no partial state behind.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/harborview-rehab/scheduler/pkg/core/availability"
	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/core/pattern"
	"github.com/harborview-rehab/scheduler/pkg/core/rules"
	"github.com/harborview-rehab/scheduler/pkg/db"
)

// Store defines the database operations the orchestrator needs
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetWorkPattern(ctx context.Context, userID string) (*model.WorkPattern, error)
	ListOverrides(ctx context.Context, cycleID, userID, date string) ([]model.AvailabilityOverride, error)
	GetCycle(ctx context.Context, id string) (*model.ScheduleCycle, error)
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	FindShift(ctx context.Context, cycleID, userID, date string, shiftType model.ShiftType) (*model.Shift, error)
	ListSlotShifts(ctx context.Context, cycleID, date string, shiftType model.ShiftType) ([]model.Shift, error)
	ListUserShiftsBetween(ctx context.Context, userID, from, to string) ([]model.Shift, error)
	InsertShift(ctx context.Context, shift *model.Shift) error
	UpdateShiftSlot(ctx context.Context, shift *model.Shift) error
	SetShiftRole(ctx context.Context, shiftID string, role model.ShiftRole) error
	SetShiftOverride(ctx context.Context, shiftID, reason, by, at string) error
	DeleteShift(ctx context.Context, shiftID string) error
}

// Auditor records who did what to what. Implementations must not block the
// primary response on failure.
type Auditor interface {
	WriteAuditLog(ctx context.Context, actorID, action, targetType, targetID string)
}

// Notifier delivers a message to the affected therapists. Fire-and-forget,
// same contract as Auditor.
type Notifier interface {
	NotifyUsers(ctx context.Context, userIDs []string, eventType, title, message, targetType, targetID string)
}

// Limits are the staffing ceilings the orchestrator enforces
type Limits struct {
	MaxSlotCoverage    int
	MinHealthyCoverage int
}

// DefaultLimits returns the standard staffing limits
func DefaultLimits() Limits {
	return Limits{
		MaxSlotCoverage:    rules.MaxSlotCoverage,
		MinHealthyCoverage: rules.MinHealthyCoverage,
	}
}

// Result is the outcome of a successful transition
type Result struct {
	Message string `json:"message"`

	// Undo is the inverse action for one-step undo, when the transition
	// computes one. Undo actions carry OverrideWeeklyRules so reversing a
	// mutation is never re-blocked by the limits it already passed.
	Undo *model.DragAction `json:"undoAction,omitempty"`

	// Warning flags a slot left below the minimum healthy coverage. It
	// never blocks the mutation.
	Warning string `json:"warning,omitempty"`
}

// Engine orchestrates shift mutations against an injected store and
// side-effect collaborators
type Engine struct {
	store    Store
	auditor  Auditor
	notifier Notifier
	limits   Limits
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// New creates an Engine. auditor and notifier may not be nil; use no-op
// implementations in tests.
func New(store Store, auditor Auditor, notifier Notifier, limits Limits, logger *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		auditor:  auditor,
		notifier: notifier,
		limits:   limits,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Apply executes one DragAction on behalf of actorID and returns the result
// plus the inverse action. Business-rule rejections come back as *Error with
// a specific code and no side effects; any other error is an infrastructure
// failure.
func (e *Engine) Apply(ctx context.Context, actorID string, action model.DragAction) (*Result, error) {
	if err := e.validateAction(action); err != nil {
		return nil, err
	}

	actor, err := e.store.GetUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, reject(CodeNotAManager, "unknown actor %s", actorID)
		}
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}
	if actor.Role != model.RoleManager {
		return nil, reject(CodeNotAManager, "only managers can modify schedules")
	}

	cycle, err := e.store.GetCycle(ctx, action.CycleID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, reject(CodeCycleNotFound, "cycle %s not found", action.CycleID)
		}
		return nil, fmt.Errorf("failed to load cycle: %w", err)
	}
	if cycle.Published {
		return nil, reject(CodeCyclePublished, "cycle %s is published and no longer accepts draft changes", cycle.ID)
	}

	e.logger.Debug("Applying schedule action",
		zap.String("type", string(action.Type)),
		zap.String("cycle_id", cycle.ID),
		zap.String("actor_id", actor.ID))

	switch action.Type {
	case model.ActionAssign:
		return e.assign(ctx, actor, cycle, action)
	case model.ActionMove:
		return e.move(ctx, actor, cycle, action)
	case model.ActionRemove:
		return e.remove(ctx, actor, cycle, action)
	case model.ActionSetLead:
		return e.setLead(ctx, actor, cycle, action)
	default:
		return nil, reject(CodeInvalidRequest, "unknown action type %q", action.Type)
	}
}

// validateAction checks the structural shape of the request: the shared
// fields via struct tags, then the per-type required fields
func (e *Engine) validateAction(action model.DragAction) error {
	if err := e.validate.Struct(action); err != nil {
		return reject(CodeInvalidRequest, "malformed action: %v", err)
	}

	switch action.Type {
	case model.ActionAssign, model.ActionSetLead:
		if action.UserID == "" || action.Date == "" || action.ShiftType == "" {
			return reject(CodeInvalidRequest, "%s requires userId, date and shiftType", action.Type)
		}
	case model.ActionMove:
		if action.ShiftID == "" || action.Date == "" || action.ShiftType == "" {
			return reject(CodeInvalidRequest, "move requires shiftId, date and shiftType")
		}
	case model.ActionRemove:
		byID := action.ShiftID != ""
		byKey := action.UserID != "" && action.Date != "" && action.ShiftType != ""
		if !byID && !byKey {
			return reject(CodeInvalidRequest, "remove requires shiftId or userId+date+shiftType")
		}
	}

	if action.Date != "" {
		if _, err := rules.ParseDate(action.Date); err != nil {
			return reject(CodeInvalidRequest, "invalid date %q", action.Date)
		}
	}
	if action.ShiftType != "" && action.ShiftType != model.ShiftDay && action.ShiftType != model.ShiftNight {
		return reject(CodeInvalidRequest, "invalid shiftType %q", action.ShiftType)
	}

	return nil
}

// resolveAvailability loads the therapist's pattern and overrides and runs
// the availability chain for the target slot
func (e *Engine) resolveAvailability(ctx context.Context, cycleID string, therapist *model.User, date string, shiftType model.ShiftType) (availability.Decision, error) {
	raw, err := e.store.GetWorkPattern(ctx, therapist.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return availability.Decision{}, fmt.Errorf("failed to load work pattern: %w", err)
	}

	overrides, err := e.store.ListOverrides(ctx, cycleID, therapist.ID, date)
	if err != nil {
		return availability.Decision{}, fmt.Errorf("failed to load availability overrides: %w", err)
	}

	decision, err := availability.Resolve(*therapist, pattern.Normalize(raw), date, shiftType, overrides)
	if err != nil {
		return availability.Decision{}, fmt.Errorf("failed to resolve availability: %w", err)
	}

	e.logger.Debug("Resolved availability",
		zap.String("therapist_id", therapist.ID),
		zap.String("date", date),
		zap.String("shift_type", string(shiftType)),
		zap.Bool("allowed", decision.Allowed),
		zap.String("reason", string(decision.Reason)))

	return decision, nil
}

// checkAvailability applies the hard/soft block semantics shared by assign,
// move and set_lead. It returns true when the caller confirmed a soft block
// and override metadata must be written onto the resulting shift row.
func (e *Engine) checkAvailability(decision availability.Decision, therapist *model.User, action model.DragAction) (overridden bool, err error) {
	if decision.Allowed {
		return false, nil
	}
	if decision.Hard {
		return false, reject(CodeHardBlock, "%s is unavailable: %s", therapist.FullName(), decision.Reason.Label())
	}
	if !action.AvailabilityOverride {
		return false, &Error{
			Code:    CodeAvailabilityConflict,
			Message: fmt.Sprintf("%s is unavailable on %s (%s)", therapist.FullName(), action.Date, decision.Reason.Label()),
			Availability: &AvailabilityConflict{
				TherapistID:   therapist.ID,
				TherapistName: therapist.FullName(),
				Date:          action.Date,
				ShiftType:     action.ShiftType,
				Reason:        decision.Reason.Label(),
			},
		}
	}
	return true, nil
}

// checkLimits enforces slot coverage and the therapist's weekly limit for a
// prospective placement. excludeShiftID removes the shift being moved from
// both counts; pass "" for a fresh assignment.
func (e *Engine) checkLimits(ctx context.Context, cycleID string, therapist *model.User, date string, shiftType model.ShiftType, excludeShiftID string) error {
	slotShifts, err := e.store.ListSlotShifts(ctx, cycleID, date, shiftType)
	if err != nil {
		return fmt.Errorf("failed to load slot shifts: %w", err)
	}

	covered := 0
	for _, s := range slotShifts {
		if s.ID != excludeShiftID && rules.CountsTowardStaffing(s.Status) {
			covered++
		}
	}
	if rules.ExceedsCoverage(covered, e.limits.MaxSlotCoverage) {
		return reject(CodeCoverageExceeded, "slot %s/%s already has %d of %d shifts", date, shiftType, covered, e.limits.MaxSlotCoverage)
	}

	target, err := rules.ParseDate(date)
	if err != nil {
		return reject(CodeInvalidRequest, "invalid date %q", date)
	}
	weekStart, weekEnd := rules.WeekBounds(target)
	weekShifts, err := e.store.ListUserShiftsBetween(ctx, therapist.ID,
		weekStart.Format(rules.DateLayout), weekEnd.Format(rules.DateLayout))
	if err != nil {
		return fmt.Errorf("failed to load weekly shifts: %w", err)
	}

	var workedDates []string
	for _, s := range weekShifts {
		if s.ID != excludeShiftID && rules.CountsTowardStaffing(s.Status) {
			workedDates = append(workedDates, s.Date)
		}
	}

	limit := rules.WeeklyLimitFor(*therapist)
	exceeds, err := rules.ExceedsWeekly(workedDates, date, limit)
	if err != nil {
		return reject(CodeInvalidRequest, "invalid date %q", date)
	}
	if exceeds {
		return reject(CodeWeeklyLimitExceeded, "%s would exceed their weekly limit of %d", therapist.FullName(), limit)
	}

	return nil
}

// coverageWarning reports a warning string when the slot a shift just left
// has dropped below the minimum healthy coverage
func (e *Engine) coverageWarning(ctx context.Context, cycleID, date string, shiftType model.ShiftType) string {
	slotShifts, err := e.store.ListSlotShifts(ctx, cycleID, date, shiftType)
	if err != nil {
		e.logger.Warn("Failed to compute coverage warning", zap.Error(err))
		return ""
	}
	covered := 0
	for _, s := range slotShifts {
		if rules.CountsTowardStaffing(s.Status) {
			covered++
		}
	}
	if covered < e.limits.MinHealthyCoverage {
		return fmt.Sprintf("slot %s/%s is below minimum coverage (%d of %d)", date, shiftType, covered, e.limits.MinHealthyCoverage)
	}
	return ""
}

// loadTherapist fetches the target therapist of an assign/set_lead action
func (e *Engine) loadTherapist(ctx context.Context, userID string) (*model.User, error) {
	therapist, err := e.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, reject(CodeInvalidRequest, "unknown therapist %s", userID)
		}
		return nil, fmt.Errorf("failed to load therapist: %w", err)
	}
	return therapist, nil
}

func (e *Engine) nowRFC3339() string {
	return e.now().UTC().Format(time.RFC3339)
}
