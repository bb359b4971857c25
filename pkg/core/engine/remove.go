package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/db"
)

// remove deletes a shift, located either by id or by its natural key
func (e *Engine) remove(ctx context.Context, actor *model.User, cycle *model.ScheduleCycle, action model.DragAction) (*Result, error) {
	var shift *model.Shift
	var err error

	if action.ShiftID != "" {
		shift, err = e.loadShift(ctx, cycle, action.ShiftID)
	} else {
		shift, err = e.store.FindShift(ctx, cycle.ID, action.UserID, action.Date, action.ShiftType)
		if errors.Is(err, db.ErrNotFound) {
			err = reject(CodeShiftNotFound, "no shift for %s on %s/%s in cycle %s", action.UserID, action.Date, action.ShiftType, cycle.ID)
		} else if err != nil {
			err = fmt.Errorf("failed to find shift: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := e.store.DeleteShift(ctx, shift.ID); err != nil {
		return nil, fmt.Errorf("failed to delete shift: %w", err)
	}

	e.logger.Info("Shift removed",
		zap.String("shift_id", shift.ID),
		zap.String("therapist_id", shift.UserID),
		zap.String("date", shift.Date),
		zap.String("shift_type", string(shift.ShiftType)))

	e.auditor.WriteAuditLog(ctx, actor.ID, "shift_removed", "shift", shift.ID)

	return &Result{
		Message: fmt.Sprintf("Removed shift on %s/%s", shift.Date, shift.ShiftType),
		Undo: &model.DragAction{
			Type:                model.ActionAssign,
			CycleID:             cycle.ID,
			UserID:              shift.UserID,
			Date:                shift.Date,
			ShiftType:           shift.ShiftType,
			OverrideWeeklyRules: true,
		},
		Warning: e.coverageWarning(ctx, cycle.ID, shift.Date, shift.ShiftType),
	}, nil
}
