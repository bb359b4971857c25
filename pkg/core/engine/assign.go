package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/db"
)

// assign places a therapist into a slot as a new staff shift
func (e *Engine) assign(ctx context.Context, actor *model.User, cycle *model.ScheduleCycle, action model.DragAction) (*Result, error) {
	if !cycle.Contains(action.Date) {
		return nil, reject(CodeDateOutOfRange, "date %s is outside cycle %s (%s to %s)", action.Date, cycle.ID, cycle.StartDate, cycle.EndDate)
	}

	therapist, err := e.loadTherapist(ctx, action.UserID)
	if err != nil {
		return nil, err
	}

	decision, err := e.resolveAvailability(ctx, cycle.ID, therapist, action.Date, action.ShiftType)
	if err != nil {
		return nil, err
	}
	overridden, err := e.checkAvailability(decision, therapist, action)
	if err != nil {
		return nil, err
	}

	if !action.OverrideWeeklyRules {
		if err := e.checkLimits(ctx, cycle.ID, therapist, action.Date, action.ShiftType, ""); err != nil {
			return nil, err
		}
	}

	shift := &model.Shift{
		ID:        uuid.NewString(),
		CycleID:   cycle.ID,
		UserID:    therapist.ID,
		Date:      action.Date,
		ShiftType: action.ShiftType,
		Status:    model.StatusScheduled,
		Role:      model.RoleStaff,
	}
	if overridden {
		shift.OverrideApplied = true
		shift.OverrideReason = action.Reason
		shift.OverrideBy = actor.ID
		shift.OverrideAt = e.nowRFC3339()
	}

	if err := e.store.InsertShift(ctx, shift); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, reject(CodeDuplicateAssignment, "%s is already assigned to %s/%s", therapist.FullName(), action.Date, action.ShiftType)
		}
		return nil, fmt.Errorf("failed to insert shift: %w", err)
	}

	e.logger.Info("Shift assigned",
		zap.String("shift_id", shift.ID),
		zap.String("therapist_id", therapist.ID),
		zap.String("date", shift.Date),
		zap.String("shift_type", string(shift.ShiftType)),
		zap.Bool("availability_override", shift.OverrideApplied))

	e.auditor.WriteAuditLog(ctx, actor.ID, "shift_added", "shift", shift.ID)
	e.notifier.NotifyUsers(ctx, []string{therapist.ID}, "shift_assigned",
		"New shift assigned",
		fmt.Sprintf("You are scheduled for the %s shift on %s.", shift.ShiftType, shift.Date),
		"shift", shift.ID)

	return &Result{
		Message: fmt.Sprintf("Assigned %s to %s/%s", therapist.FullName(), shift.Date, shift.ShiftType),
		Undo: &model.DragAction{
			Type:      model.ActionRemove,
			CycleID:   cycle.ID,
			UserID:    therapist.ID,
			Date:      shift.Date,
			ShiftType: shift.ShiftType,
		},
	}, nil
}
