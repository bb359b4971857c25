package db

import (
	"context"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
)

// Store defines the full set of database operations the scheduler needs.
// Both postgres.DB and sqlite.DB implement this interface; consumers depend
// on narrower per-component interfaces (engine.Store, audit.Store,
// notify.Store) and this one exists so the CLI can wire either backend.
type Store interface {
	// Directory reads
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetWorkPattern(ctx context.Context, userID string) (*model.WorkPattern, error)
	ListOverrides(ctx context.Context, cycleID, userID, date string) ([]model.AvailabilityOverride, error)

	// Cycles
	GetCycle(ctx context.Context, id string) (*model.ScheduleCycle, error)

	// Shifts
	GetShift(ctx context.Context, id string) (*model.Shift, error)
	FindShift(ctx context.Context, cycleID, userID, date string, shiftType model.ShiftType) (*model.Shift, error)
	ListSlotShifts(ctx context.Context, cycleID, date string, shiftType model.ShiftType) ([]model.Shift, error)
	ListUserShiftsBetween(ctx context.Context, userID, from, to string) ([]model.Shift, error)
	InsertShift(ctx context.Context, shift *model.Shift) error
	UpdateShiftSlot(ctx context.Context, shift *model.Shift) error
	SetShiftRole(ctx context.Context, shiftID string, role model.ShiftRole) error
	SetShiftOverride(ctx context.Context, shiftID, reason, by, at string) error
	DeleteShift(ctx context.Context, shiftID string) error

	// Side-effect records
	InsertAuditEntry(ctx context.Context, entry *AuditEntry) error
	InsertNotifications(ctx context.Context, notifications []Notification) error
}
