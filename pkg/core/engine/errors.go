package engine

import (
	"errors"
	"fmt"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
)

// Code is a machine-readable reason for rejecting a schedule mutation
type Code string

const (
	CodeInvalidRequest       Code = "invalid_request"
	CodeNotAManager          Code = "not_a_manager"
	CodeCycleNotFound        Code = "cycle_not_found"
	CodeCyclePublished       Code = "cycle_published"
	CodeShiftNotFound        Code = "shift_not_found"
	CodeDateOutOfRange       Code = "date_out_of_range"
	CodeHardBlock            Code = "availability_hard_block"
	CodeAvailabilityConflict Code = "availability_conflict"
	CodeCoverageExceeded     Code = "coverage_exceeded"
	CodeWeeklyLimitExceeded  Code = "weekly_limit_exceeded"
	CodeDuplicateAssignment  Code = "duplicate_assignment"
	CodeLeadNotEligible      Code = "lead_not_eligible"
	CodeMultipleLeads        Code = "multiple_leads_prevented"
)

// AvailabilityConflict carries the detail a caller needs to re-issue a
// soft-blocked request with manager confirmation
type AvailabilityConflict struct {
	TherapistID   string          `json:"therapistId"`
	TherapistName string          `json:"therapistName"`
	Date          string          `json:"date"`
	ShiftType     model.ShiftType `json:"shiftType"`
	Reason        string          `json:"reason"`
}

// Error is a reason-coded business-rule rejection. Every Error is produced
// before any mutating store call, so a rejected request has no side effects.
type Error struct {
	Code    Code
	Message string

	// Availability is set only for CodeAvailabilityConflict
	Availability *AvailabilityConflict
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// reject builds a plain reason-coded rejection
func reject(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsEngineError unwraps err to an *Error when it is one
func AsEngineError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
