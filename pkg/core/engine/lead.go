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

// setLead designates a therapist as the lead for a slot, inserting their
// shift row first when they have none. At most one lead exists per slot:
// the in-request check below catches the common case, and the store's
// partial unique index on lead rows catches the concurrent one.
//
// set_lead computes no undo action.
func (e *Engine) setLead(ctx context.Context, actor *model.User, cycle *model.ScheduleCycle, action model.DragAction) (*Result, error) {
	if !cycle.Contains(action.Date) {
		return nil, reject(CodeDateOutOfRange, "date %s is outside cycle %s (%s to %s)", action.Date, cycle.ID, cycle.StartDate, cycle.EndDate)
	}

	therapist, err := e.loadTherapist(ctx, action.UserID)
	if err != nil {
		return nil, err
	}
	if therapist.Role != model.RoleTherapist || !therapist.LeadEligible {
		return nil, reject(CodeLeadNotEligible, "%s is not eligible to be designated lead", therapist.FullName())
	}

	decision, err := e.resolveAvailability(ctx, cycle.ID, therapist, action.Date, action.ShiftType)
	if err != nil {
		return nil, err
	}
	overridden, err := e.checkAvailability(decision, therapist, action)
	if err != nil {
		return nil, err
	}

	existing, err := e.store.FindShift(ctx, cycle.ID, therapist.ID, action.Date, action.ShiftType)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to find existing shift: %w", err)
	}
	hasShift := err == nil

	// Coverage and weekly limits only apply when the designation also adds
	// a new shift to the slot
	if !hasShift && !action.OverrideWeeklyRules {
		if err := e.checkLimits(ctx, cycle.ID, therapist, action.Date, action.ShiftType, ""); err != nil {
			return nil, err
		}
	}

	slotShifts, err := e.store.ListSlotShifts(ctx, cycle.ID, action.Date, action.ShiftType)
	if err != nil {
		return nil, fmt.Errorf("failed to load slot shifts: %w", err)
	}
	if other := currentLead(slotShifts, therapist.ID); other != nil {
		return nil, reject(CodeMultipleLeads, "slot %s/%s already has a designated lead", action.Date, action.ShiftType)
	}

	target := existing
	if !hasShift {
		target = &model.Shift{
			ID:        uuid.NewString(),
			CycleID:   cycle.ID,
			UserID:    therapist.ID,
			Date:      action.Date,
			ShiftType: action.ShiftType,
			Status:    model.StatusScheduled,
			Role:      model.RoleStaff,
		}
		if overridden {
			target.OverrideApplied = true
			target.OverrideReason = action.Reason
			target.OverrideBy = actor.ID
			target.OverrideAt = e.nowRFC3339()
		}
		if err := e.store.InsertShift(ctx, target); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				return nil, reject(CodeDuplicateAssignment, "%s is already assigned to %s/%s", therapist.FullName(), action.Date, action.ShiftType)
			}
			return nil, fmt.Errorf("failed to insert shift: %w", err)
		}
	}

	if target.Role != model.RoleLead {
		if err := e.store.SetShiftRole(ctx, target.ID, model.RoleLead); err != nil {
			// the shift row inserted above must not outlive a rejected
			// designation
			if !hasShift {
				if delErr := e.store.DeleteShift(ctx, target.ID); delErr != nil {
					e.logger.Warn("Failed to remove shift after lead promotion failure",
						zap.String("shift_id", target.ID),
						zap.Error(delErr))
				}
			}
			if errors.Is(err, db.ErrDuplicate) {
				return nil, reject(CodeMultipleLeads, "slot %s/%s already has a designated lead", action.Date, action.ShiftType)
			}
			return nil, fmt.Errorf("failed to promote lead: %w", err)
		}
	}

	if hasShift && overridden {
		if err := e.store.SetShiftOverride(ctx, target.ID, action.Reason, actor.ID, e.nowRFC3339()); err != nil {
			return nil, fmt.Errorf("failed to record availability override: %w", err)
		}
	}

	e.logger.Info("Lead designated",
		zap.String("shift_id", target.ID),
		zap.String("therapist_id", therapist.ID),
		zap.String("date", action.Date),
		zap.String("shift_type", string(action.ShiftType)))

	e.auditor.WriteAuditLog(ctx, actor.ID, "designated_lead_assigned", "shift", target.ID)

	return &Result{
		Message: fmt.Sprintf("Designated %s as lead for %s/%s", therapist.FullName(), action.Date, action.ShiftType),
	}, nil
}

// currentLead returns the lead shift held by a different therapist, if any
func currentLead(slotShifts []model.Shift, userID string) *model.Shift {
	for i := range slotShifts {
		if slotShifts[i].Role == model.RoleLead && slotShifts[i].UserID != userID {
			return &slotShifts[i]
		}
	}
	return nil
}
