package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/db"
)

// mockStore implements a test double for the engine's Store
type mockStore struct {
	users     map[string]model.User
	patterns  map[string]model.WorkPattern
	overrides []model.AvailabilityOverride
	cycles    map[string]model.ScheduleCycle
	shifts    []model.Shift

	insertErr error
	updateErr error
	roleErr   error

	inserted     []model.Shift
	updated      []model.Shift
	deleted      []string
	roleSets     map[string]model.ShiftRole
	overrideSets []string // shift ids passed to SetShiftOverride
}

func newMockStore() *mockStore {
	return &mockStore{
		users:    make(map[string]model.User),
		patterns: make(map[string]model.WorkPattern),
		cycles:   make(map[string]model.ScheduleCycle),
		roleSets: make(map[string]model.ShiftRole),
	}
}

func (m *mockStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (m *mockStore) GetWorkPattern(ctx context.Context, userID string) (*model.WorkPattern, error) {
	p, ok := m.patterns[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &p, nil
}

func (m *mockStore) ListOverrides(ctx context.Context, cycleID, userID, date string) ([]model.AvailabilityOverride, error) {
	var out []model.AvailabilityOverride
	for _, o := range m.overrides {
		if o.CycleID == cycleID && o.UserID == userID && o.Date == date {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockStore) GetCycle(ctx context.Context, id string) (*model.ScheduleCycle, error) {
	c, ok := m.cycles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

func (m *mockStore) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	for _, s := range m.shifts {
		if s.ID == id {
			out := s
			return &out, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockStore) FindShift(ctx context.Context, cycleID, userID, date string, shiftType model.ShiftType) (*model.Shift, error) {
	for _, s := range m.shifts {
		if s.CycleID == cycleID && s.UserID == userID && s.Date == date && s.ShiftType == shiftType {
			out := s
			return &out, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockStore) ListSlotShifts(ctx context.Context, cycleID, date string, shiftType model.ShiftType) ([]model.Shift, error) {
	var out []model.Shift
	for _, s := range m.shifts {
		if s.CycleID == cycleID && s.Date == date && s.ShiftType == shiftType {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) ListUserShiftsBetween(ctx context.Context, userID, from, to string) ([]model.Shift, error) {
	var out []model.Shift
	for _, s := range m.shifts {
		if s.UserID == userID && s.Date >= from && s.Date <= to {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) InsertShift(ctx context.Context, shift *model.Shift) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, s := range m.shifts {
		if s.CycleID == shift.CycleID && s.UserID == shift.UserID && s.Date == shift.Date && s.ShiftType == shift.ShiftType {
			return db.ErrDuplicate
		}
	}
	m.shifts = append(m.shifts, *shift)
	m.inserted = append(m.inserted, *shift)
	return nil
}

func (m *mockStore) UpdateShiftSlot(ctx context.Context, shift *model.Shift) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	for _, s := range m.shifts {
		if s.ID != shift.ID && s.CycleID == shift.CycleID && s.UserID == shift.UserID && s.Date == shift.Date && s.ShiftType == shift.ShiftType {
			return db.ErrDuplicate
		}
	}
	for i := range m.shifts {
		if m.shifts[i].ID == shift.ID {
			m.shifts[i] = *shift
		}
	}
	m.updated = append(m.updated, *shift)
	return nil
}

func (m *mockStore) SetShiftRole(ctx context.Context, shiftID string, role model.ShiftRole) error {
	if m.roleErr != nil {
		return m.roleErr
	}
	for i := range m.shifts {
		if m.shifts[i].ID == shiftID {
			m.shifts[i].Role = role
		}
	}
	m.roleSets[shiftID] = role
	return nil
}

func (m *mockStore) SetShiftOverride(ctx context.Context, shiftID, reason, by, at string) error {
	m.overrideSets = append(m.overrideSets, shiftID)
	return nil
}

func (m *mockStore) DeleteShift(ctx context.Context, shiftID string) error {
	for i := range m.shifts {
		if m.shifts[i].ID == shiftID {
			m.shifts = append(m.shifts[:i], m.shifts[i+1:]...)
			m.deleted = append(m.deleted, shiftID)
			return nil
		}
	}
	return db.ErrNotFound
}

// auditRecord captures one WriteAuditLog call
type auditRecord struct {
	actorID, action, targetType, targetID string
}

type mockAuditor struct {
	records []auditRecord
}

func (m *mockAuditor) WriteAuditLog(ctx context.Context, actorID, action, targetType, targetID string) {
	m.records = append(m.records, auditRecord{actorID, action, targetType, targetID})
}

// notification captures one NotifyUsers call
type notification struct {
	userIDs   []string
	eventType string
}

type mockNotifier struct {
	sent []notification
}

func (m *mockNotifier) NotifyUsers(ctx context.Context, userIDs []string, eventType, title, message, targetType, targetID string) {
	m.sent = append(m.sent, notification{userIDs: userIDs, eventType: eventType})
}

// fixture wires an engine over a mock store pre-seeded with a manager, a
// therapist and an open six-week cycle
type fixture struct {
	store    *mockStore
	auditor  *mockAuditor
	notifier *mockNotifier
	engine   *Engine
}

const (
	managerID   = "mgr-1"
	therapistID = "ther-1"
	cycleID     = "cycle-1"
)

func newFixture() *fixture {
	store := newMockStore()
	store.users[managerID] = model.User{
		ID: managerID, FirstName: "Dana", LastName: "Reyes",
		Role: model.RoleManager, Active: true,
	}
	store.users[therapistID] = model.User{
		ID: therapistID, FirstName: "Sam", LastName: "Okafor",
		Role: model.RoleTherapist, Active: true,
		Employment: model.FullTime, LeadEligible: true,
	}
	store.cycles[cycleID] = model.ScheduleCycle{
		ID: cycleID, Label: "March-April",
		StartDate: "2026-03-01", EndDate: "2026-04-11",
	}

	auditor := &mockAuditor{}
	notifier := &mockNotifier{}
	return &fixture{
		store:    store,
		auditor:  auditor,
		notifier: notifier,
		engine:   New(store, auditor, notifier, DefaultLimits(), zap.NewNop()),
	}
}

func assign(userID, date string, shiftType model.ShiftType) model.DragAction {
	return model.DragAction{
		Type:      model.ActionAssign,
		CycleID:   cycleID,
		UserID:    userID,
		Date:      date,
		ShiftType: shiftType,
	}
}

func requireCode(t *testing.T, err error, code Code) *Error {
	t.Helper()
	engErr, ok := AsEngineError(err)
	require.True(t, ok, "expected engine error, got %v", err)
	assert.Equal(t, code, engErr.Code)
	return engErr
}

func TestApplyValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Missing type
	_, err := f.engine.Apply(ctx, managerID, model.DragAction{CycleID: cycleID})
	requireCode(t, err, CodeInvalidRequest)

	// Unknown type
	_, err = f.engine.Apply(ctx, managerID, model.DragAction{Type: "swap", CycleID: cycleID})
	requireCode(t, err, CodeInvalidRequest)

	// assign without a target slot
	_, err = f.engine.Apply(ctx, managerID, model.DragAction{Type: model.ActionAssign, CycleID: cycleID, UserID: therapistID})
	requireCode(t, err, CodeInvalidRequest)

	// move without a shift id
	_, err = f.engine.Apply(ctx, managerID, model.DragAction{Type: model.ActionMove, CycleID: cycleID, Date: "2026-03-10", ShiftType: model.ShiftDay})
	requireCode(t, err, CodeInvalidRequest)

	// remove with neither id nor natural key
	_, err = f.engine.Apply(ctx, managerID, model.DragAction{Type: model.ActionRemove, CycleID: cycleID})
	requireCode(t, err, CodeInvalidRequest)

	// Bad date and bad shift type
	_, err = f.engine.Apply(ctx, managerID, assign(therapistID, "03/10/2026", model.ShiftDay))
	requireCode(t, err, CodeInvalidRequest)
	_, err = f.engine.Apply(ctx, managerID, assign(therapistID, "2026-03-10", "evening"))
	requireCode(t, err, CodeInvalidRequest)

	// A rejected request mutates nothing
	assert.Empty(t, f.store.inserted)
	assert.Empty(t, f.auditor.records)
}

func TestApplyAuthorization(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Unknown actor
	_, err := f.engine.Apply(ctx, "ghost", assign(therapistID, "2026-03-10", model.ShiftDay))
	requireCode(t, err, CodeNotAManager)

	// Therapists cannot mutate schedules
	_, err = f.engine.Apply(ctx, therapistID, assign(therapistID, "2026-03-10", model.ShiftDay))
	requireCode(t, err, CodeNotAManager)
}

func TestApplyCycleChecks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	action := assign(therapistID, "2026-03-10", model.ShiftDay)
	action.CycleID = "missing"
	_, err := f.engine.Apply(ctx, managerID, action)
	requireCode(t, err, CodeCycleNotFound)

	f.store.cycles["pub"] = model.ScheduleCycle{
		ID: "pub", StartDate: "2026-03-01", EndDate: "2026-04-11", Published: true,
	}
	action.CycleID = "pub"
	_, err = f.engine.Apply(ctx, managerID, action)
	requireCode(t, err, CodeCyclePublished)
}

func TestApplyDateOutOfRange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.engine.Apply(ctx, managerID, assign(therapistID, "2026-04-12", model.ShiftDay))
	requireCode(t, err, CodeDateOutOfRange)

	_, err = f.engine.Apply(ctx, managerID, assign(therapistID, "2026-02-28", model.ShiftNight))
	requireCode(t, err, CodeDateOutOfRange)
}
