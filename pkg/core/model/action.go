package model

// ActionType discriminates the DragAction union
type ActionType string

const (
	ActionAssign  ActionType = "assign"
	ActionMove    ActionType = "move"
	ActionRemove  ActionType = "remove"
	ActionSetLead ActionType = "set_lead"
)

// DragAction is the discriminated request body for a single shift-level
// mutation. Which fields are required depends on Type; the engine validates
// the shape before touching the store.
//
// Successful assign/move/remove calls return the inverse DragAction so the
// caller can offer one-step undo. set_lead returns none.
type DragAction struct {
	Type    ActionType `json:"type" validate:"required,oneof=assign move remove set_lead"`
	CycleID string     `json:"cycleId" validate:"required"`

	// assign / set_lead: the therapist to place
	UserID string `json:"userId,omitempty"`

	// move / remove: the existing shift row
	ShiftID string `json:"shiftId,omitempty"`

	// assign / set_lead target slot, move destination, remove natural key
	Date      string    `json:"date,omitempty"`
	ShiftType ShiftType `json:"shiftType,omitempty"`

	// OverrideWeeklyRules bypasses the coverage and weekly-limit checks.
	// Undo actions set it so that reversing a mutation is never re-blocked.
	OverrideWeeklyRules bool `json:"overrideWeeklyRules,omitempty"`

	// AvailabilityOverride confirms a previously reported soft availability
	// conflict; Reason is the manager's recorded justification.
	AvailabilityOverride bool   `json:"availabilityOverride,omitempty"`
	Reason               string `json:"reason,omitempty"`
}
