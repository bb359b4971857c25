package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
)

func TestAssignSuccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.engine.Apply(ctx, managerID, assign(therapistID, "2026-03-10", model.ShiftDay))
	require.NoError(t, err)

	require.Len(t, f.store.inserted, 1)
	shift := f.store.inserted[0]
	assert.NotEmpty(t, shift.ID)
	assert.Equal(t, cycleID, shift.CycleID)
	assert.Equal(t, therapistID, shift.UserID)
	assert.Equal(t, "2026-03-10", shift.Date)
	assert.Equal(t, model.ShiftDay, shift.ShiftType)
	assert.Equal(t, model.StatusScheduled, shift.Status)
	assert.Equal(t, model.RoleStaff, shift.Role)
	assert.False(t, shift.OverrideApplied)

	// Undo is a remove by natural key
	require.NotNil(t, result.Undo)
	assert.Equal(t, model.ActionRemove, result.Undo.Type)
	assert.Equal(t, cycleID, result.Undo.CycleID)
	assert.Equal(t, therapistID, result.Undo.UserID)
	assert.Equal(t, "2026-03-10", result.Undo.Date)
	assert.Equal(t, model.ShiftDay, result.Undo.ShiftType)

	// Audit and notification side effects
	require.Len(t, f.auditor.records, 1)
	assert.Equal(t, auditRecord{managerID, "shift_added", "shift", shift.ID}, f.auditor.records[0])
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, []string{therapistID}, f.notifier.sent[0].userIDs)
	assert.Equal(t, "shift_assigned", f.notifier.sent[0].eventType)
}

func TestAssignCoverageExceeded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Five staffed shifts already fill the slot
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("other-%d", i)
		f.store.users[id] = model.User{ID: id, Role: model.RoleTherapist, Active: true}
		f.store.shifts = append(f.store.shifts, model.Shift{
			ID: fmt.Sprintf("s-%d", i), CycleID: cycleID, UserID: id,
			Date: "2026-03-10", ShiftType: model.ShiftDay,
			Status: model.StatusScheduled, Role: model.RoleStaff,
		})
	}

	_, err := f.engine.Apply(ctx, managerID, assign(therapistID, "2026-03-10", model.ShiftDay))
	requireCode(t, err, CodeCoverageExceeded)
	assert.Empty(t, f.store.inserted)
}

func TestAssignCoverageIgnoresSickShifts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Four staffed plus one sick shift leaves room for one more
	for i := 0; i < 4; i++ {
		f.store.shifts = append(f.store.shifts, model.Shift{
			ID: fmt.Sprintf("s-%d", i), CycleID: cycleID, UserID: fmt.Sprintf("other-%d", i),
			Date: "2026-03-10", ShiftType: model.ShiftDay,
			Status: model.StatusScheduled, Role: model.RoleStaff,
		})
	}
	f.store.shifts = append(f.store.shifts, model.Shift{
		ID: "s-sick", CycleID: cycleID, UserID: "other-9",
		Date: "2026-03-10", ShiftType: model.ShiftDay,
		Status: model.StatusSick, Role: model.RoleStaff,
	})

	_, err := f.engine.Apply(ctx, managerID, assign(therapistID, "2026-03-10", model.ShiftDay))
	require.NoError(t, err)
	assert.Len(t, f.store.inserted, 1)
}

func TestAssignWeeklyLimitExceeded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Mon, Tue, Wed of the same week already worked; full-time limit is 3
	for i, date := range []string{"2026-03-09", "2026-03-10", "2026-03-11"} {
		f.store.shifts = append(f.store.shifts, model.Shift{
			ID: fmt.Sprintf("s-%d", i), CycleID: cycleID, UserID: therapistID,
			Date: date, ShiftType: model.ShiftDay,
			Status: model.StatusScheduled, Role: model.RoleStaff,
		})
	}

	_, err := f.engine.Apply(ctx, managerID, assign(therapistID, "2026-03-12", model.ShiftDay))
	requireCode(t, err, CodeWeeklyLimitExceeded)

	// The next week is a fresh count
	_, err = f.engine.Apply(ctx, managerID, assign(therapistID, "2026-03-16", model.ShiftDay))
	require.NoError(t, err)
}

func TestAssignWeeklyLimitOverride(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for i, date := range []string{"2026-03-09", "2026-03-10", "2026-03-11"} {
		f.store.shifts = append(f.store.shifts, model.Shift{
			ID: fmt.Sprintf("s-%d", i), CycleID: cycleID, UserID: therapistID,
			Date: date, ShiftType: model.ShiftDay,
			Status: model.StatusScheduled, Role: model.RoleStaff,
		})
	}

	action := assign(therapistID, "2026-03-12", model.ShiftDay)
	action.OverrideWeeklyRules = true
	_, err := f.engine.Apply(ctx, managerID, action)
	require.NoError(t, err)
	assert.Len(t, f.store.inserted, 1)
}

func TestAssignAvailabilityConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.store.overrides = append(f.store.overrides, model.AvailabilityOverride{
		CycleID: cycleID, UserID: therapistID,
		Date: "2026-03-10", Scope: model.ScopeDay, Type: model.ForceOff,
	})

	_, err := f.engine.Apply(ctx, managerID, assign(therapistID, "2026-03-10", model.ShiftDay))
	engErr := requireCode(t, err, CodeAvailabilityConflict)

	// The conflict payload carries what the caller needs to confirm
	require.NotNil(t, engErr.Availability)
	assert.Equal(t, therapistID, engErr.Availability.TherapistID)
	assert.Equal(t, "Sam Okafor", engErr.Availability.TherapistName)
	assert.Equal(t, "2026-03-10", engErr.Availability.Date)
	assert.Equal(t, model.ShiftDay, engErr.Availability.ShiftType)
	assert.Equal(t, "Force off override", engErr.Availability.Reason)
	assert.Empty(t, f.store.inserted)

	// The night shift is outside the override's scope
	_, err = f.engine.Apply(ctx, managerID, assign(therapistID, "2026-03-10", model.ShiftNight))
	require.NoError(t, err)
}

func TestAssignAvailabilityOverrideConfirmed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.store.overrides = append(f.store.overrides, model.AvailabilityOverride{
		CycleID: cycleID, UserID: therapistID,
		Date: "2026-03-10", Scope: model.ScopeBoth, Type: model.ForceOff,
	})

	action := assign(therapistID, "2026-03-10", model.ShiftDay)
	action.AvailabilityOverride = true
	action.Reason = "Approved swap with coworker"

	_, err := f.engine.Apply(ctx, managerID, action)
	require.NoError(t, err)

	require.Len(t, f.store.inserted, 1)
	shift := f.store.inserted[0]
	assert.True(t, shift.OverrideApplied)
	assert.Equal(t, "Approved swap with coworker", shift.OverrideReason)
	assert.Equal(t, managerID, shift.OverrideBy)
	assert.NotEmpty(t, shift.OverrideAt)
}

func TestAssignHardBlockNotOverridable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u := f.store.users[therapistID]
	u.OnFMLA = true
	f.store.users[therapistID] = u

	action := assign(therapistID, "2026-03-10", model.ShiftDay)
	action.AvailabilityOverride = true
	action.Reason = "Urgent coverage"

	_, err := f.engine.Apply(ctx, managerID, action)
	requireCode(t, err, CodeHardBlock)
	assert.Empty(t, f.store.inserted)
}

func TestAssignPRNWithoutOverrides(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.store.users["prn-1"] = model.User{
		ID: "prn-1", FirstName: "Lee", LastName: "Nguyen",
		Role: model.RoleTherapist, Active: true, Employment: model.PRN,
	}

	// No override records at all: assignable with no conflict
	_, err := f.engine.Apply(ctx, managerID, assign("prn-1", "2026-03-10", model.ShiftDay))
	require.NoError(t, err)

	// But a second shift the same week breaks the PRN limit of 1
	_, err = f.engine.Apply(ctx, managerID, assign("prn-1", "2026-03-12", model.ShiftDay))
	requireCode(t, err, CodeWeeklyLimitExceeded)
}

func TestAssignDuplicate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.engine.Apply(ctx, managerID, assign(therapistID, "2026-03-10", model.ShiftDay))
	require.NoError(t, err)

	_, err = f.engine.Apply(ctx, managerID, assign(therapistID, "2026-03-10", model.ShiftDay))
	requireCode(t, err, CodeDuplicateAssignment)
}

func TestAssignUnknownTherapist(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.engine.Apply(ctx, managerID, assign("missing", "2026-03-10", model.ShiftDay))
	requireCode(t, err, CodeInvalidRequest)
}
