package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/db"
)

// move relocates an existing shift to another (date, shift type) in place,
// keeping its id
func (e *Engine) move(ctx context.Context, actor *model.User, cycle *model.ScheduleCycle, action model.DragAction) (*Result, error) {
	shift, err := e.loadShift(ctx, cycle, action.ShiftID)
	if err != nil {
		return nil, err
	}

	if shift.Date == action.Date && shift.ShiftType == action.ShiftType {
		return &Result{Message: "Shift is already at the target slot"}, nil
	}

	if !cycle.Contains(action.Date) {
		return nil, reject(CodeDateOutOfRange, "date %s is outside cycle %s (%s to %s)", action.Date, cycle.ID, cycle.StartDate, cycle.EndDate)
	}

	therapist, err := e.loadTherapist(ctx, shift.UserID)
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
		if err := e.checkLimits(ctx, cycle.ID, therapist, action.Date, action.ShiftType, shift.ID); err != nil {
			return nil, err
		}
	}

	origDate, origType := shift.Date, shift.ShiftType

	shift.Date = action.Date
	shift.ShiftType = action.ShiftType
	if overridden {
		shift.OverrideApplied = true
		shift.OverrideReason = action.Reason
		shift.OverrideBy = actor.ID
		shift.OverrideAt = e.nowRFC3339()
	} else {
		// metadata from a previous slot does not describe the new one
		shift.OverrideApplied = false
		shift.OverrideReason = ""
		shift.OverrideBy = ""
		shift.OverrideAt = ""
	}

	if err := e.store.UpdateShiftSlot(ctx, shift); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, reject(CodeDuplicateAssignment, "%s is already assigned to %s/%s", therapist.FullName(), action.Date, action.ShiftType)
		}
		return nil, fmt.Errorf("failed to move shift: %w", err)
	}

	e.logger.Info("Shift moved",
		zap.String("shift_id", shift.ID),
		zap.String("from", fmt.Sprintf("%s/%s", origDate, origType)),
		zap.String("to", fmt.Sprintf("%s/%s", shift.Date, shift.ShiftType)))

	e.auditor.WriteAuditLog(ctx, actor.ID, "shift_moved", "shift", shift.ID)
	e.notifier.NotifyUsers(ctx, []string{therapist.ID}, "shift_moved",
		"Shift moved",
		fmt.Sprintf("Your %s shift on %s was moved to the %s shift on %s.", origType, origDate, shift.ShiftType, shift.Date),
		"shift", shift.ID)

	return &Result{
		Message: fmt.Sprintf("Moved %s to %s/%s", therapist.FullName(), shift.Date, shift.ShiftType),
		Undo: &model.DragAction{
			Type:                model.ActionMove,
			CycleID:             cycle.ID,
			ShiftID:             shift.ID,
			Date:                origDate,
			ShiftType:           origType,
			OverrideWeeklyRules: true,
		},
		Warning: e.coverageWarning(ctx, cycle.ID, origDate, origType),
	}, nil
}

// loadShift fetches a shift by id and checks it belongs to the cycle
func (e *Engine) loadShift(ctx context.Context, cycle *model.ScheduleCycle, shiftID string) (*model.Shift, error) {
	shift, err := e.store.GetShift(ctx, shiftID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, reject(CodeShiftNotFound, "shift %s not found", shiftID)
		}
		return nil, fmt.Errorf("failed to load shift: %w", err)
	}
	if shift.CycleID != cycle.ID {
		return nil, reject(CodeShiftNotFound, "shift %s does not belong to cycle %s", shiftID, cycle.ID)
	}
	return shift, nil
}
