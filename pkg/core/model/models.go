package model

// ShiftType identifies which half of the day a shift covers
type ShiftType string

const (
	ShiftDay   ShiftType = "day"
	ShiftNight ShiftType = "night"
)

// ShiftStatus is the lifecycle status of a shift row.
// Only Scheduled and OnCall count toward staffing numbers.
type ShiftStatus string

const (
	StatusScheduled ShiftStatus = "scheduled"
	StatusOnCall    ShiftStatus = "on_call"
	StatusSick      ShiftStatus = "sick"
	StatusCalledOff ShiftStatus = "called_off"
)

// ShiftRole distinguishes the single designated lead from ordinary staff
type ShiftRole string

const (
	RoleLead  ShiftRole = "lead"
	RoleStaff ShiftRole = "staff"
)

// UserRole separates managers (who mutate schedules) from therapists (who work them)
type UserRole string

const (
	RoleManager   UserRole = "manager"
	RoleTherapist UserRole = "therapist"
)

// EmploymentType drives the default weekly shift limit
type EmploymentType string

const (
	FullTime EmploymentType = "full_time"
	PartTime EmploymentType = "part_time"
	PRN      EmploymentType = "prn"
)

// OverrideType is the direction of a date-scoped availability override
type OverrideType string

const (
	ForceOff OverrideType = "force_off"
	ForceOn  OverrideType = "force_on"
)

// OverrideScope limits an override to one shift type, or both
type OverrideScope string

const (
	ScopeDay   OverrideScope = "day"
	ScopeNight OverrideScope = "night"
	ScopeBoth  OverrideScope = "both"
)

// RotationMode is the weekend-rotation setting on a work pattern
type RotationMode string

const (
	RotationNone       RotationMode = "none"
	RotationEveryOther RotationMode = "every_other"
)

// EnforcementMode controls whether the works-weekday set is a hard rule
// or a soft preference ignored by the resolver
type EnforcementMode string

const (
	EnforceHard EnforcementMode = "hard"
	EnforceSoft EnforcementMode = "soft"
)

// ShiftPreference is the therapist's preferred shift type
type ShiftPreference string

const (
	PreferDay    ShiftPreference = "day"
	PreferNight  ShiftPreference = "night"
	PreferEither ShiftPreference = "either"
)

// User is a directory record for a manager or therapist.
// The engine reads these; directory maintenance owns them.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Role         UserRole
	Active       bool
	OnFMLA       bool
	Employment   EmploymentType
	LeadEligible bool
	WeeklyLimit  int // 0 means "use the employment-type default"
	ShiftTeam    ShiftType
}

// FullName returns the display name used in conflict payloads and notifications
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// WorkPattern is a therapist's raw recurring-availability configuration.
// All fields are optional; pattern.Normalize turns unset fields into inert
// defaults.
type WorkPattern struct {
	UserID          string
	WorksWeekdays   []int // 0=Sunday .. 6=Saturday
	NeverWeekdays   []int
	Rotation        RotationMode
	AnchorSaturday  string // civil date, required when Rotation is every_other
	Enforcement     EnforcementMode
	ShiftPreference ShiftPreference
}

// AvailabilityOverride is a date-scoped exception to the recurring pattern.
// At most one row exists per (cycle, user, date, scope); writers upsert.
type AvailabilityOverride struct {
	ID        string
	CycleID   string
	UserID    string
	Date      string
	Scope     OverrideScope
	Type      OverrideType
	Note      string
	CreatedBy string
	Source    string // "therapist" or "manager"
}

// Matches reports whether the override applies to the given shift type
func (o AvailabilityOverride) Matches(shiftType ShiftType) bool {
	return o.Scope == ScopeBoth || string(o.Scope) == string(shiftType)
}

// ScheduleCycle is a multi-week scheduling window. The date range is
// immutable once created.
type ScheduleCycle struct {
	ID        string
	Label     string
	StartDate string
	EndDate   string
	Published bool
}

// Contains reports whether the civil date lies within [StartDate, EndDate]
func (c ScheduleCycle) Contains(date string) bool {
	return date >= c.StartDate && date <= c.EndDate
}

// Shift is one therapist working one slot of one day
type Shift struct {
	ID        string
	CycleID   string
	UserID    string
	Date      string
	ShiftType ShiftType
	Status    ShiftStatus
	Role      ShiftRole

	// Availability-override audit trail, set when a manager confirmed a
	// soft availability block
	OverrideApplied bool
	OverrideReason  string
	OverrideBy      string
	OverrideAt      string // RFC 3339
}

// SlotKey identifies a (cycle, date, shift type) slot
type SlotKey struct {
	CycleID   string
	Date      string
	ShiftType ShiftType
}

// Slot returns the slot this shift occupies
func (s Shift) Slot() SlotKey {
	return SlotKey{CycleID: s.CycleID, Date: s.Date, ShiftType: s.ShiftType}
}
