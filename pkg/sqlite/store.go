package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/db"
)

// GetUser retrieves a directory record by id
func (d *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, role, active, on_fmla,
		       employment_type, lead_eligible, weekly_shift_limit, shift_team
		FROM users
		WHERE id = ?
	`, id).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &u.Active, &u.OnFMLA,
		&u.Employment, &u.LeadEligible, &u.WeeklyLimit, &u.ShiftTeam)
	if err != nil {
		if mapped := mapReadErr(err); errors.Is(mapped, db.ErrNotFound) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// GetWorkPattern retrieves a therapist's recurring-availability
// configuration. Returns db.ErrNotFound when the therapist has none.
func (d *DB) GetWorkPattern(ctx context.Context, userID string) (*model.WorkPattern, error) {
	var p model.WorkPattern
	var works, never string
	err := d.conn.QueryRowContext(ctx, `
		SELECT user_id, works_weekdays, never_weekdays, weekend_rotation,
		       anchor_saturday, enforcement, shift_preference
		FROM work_pattern
		WHERE user_id = ?
	`, userID).Scan(&p.UserID, &works, &never, &p.Rotation,
		&p.AnchorSaturday, &p.Enforcement, &p.ShiftPreference)
	if err != nil {
		if mapped := mapReadErr(err); errors.Is(mapped, db.ErrNotFound) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query work pattern: %w", err)
	}
	p.WorksWeekdays = db.ParseWeekdays(works)
	p.NeverWeekdays = db.ParseWeekdays(never)
	return &p, nil
}

// ListOverrides retrieves the availability overrides for one therapist on
// one date of a cycle
func (d *DB) ListOverrides(ctx context.Context, cycleID, userID, date string) ([]model.AvailabilityOverride, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, cycle_id, user_id, override_date, scope, override_type, note, created_by, source
		FROM availability_override
		WHERE cycle_id = ? AND user_id = ? AND override_date = ?
	`, cycleID, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	var overrides []model.AvailabilityOverride
	for rows.Next() {
		var o model.AvailabilityOverride
		if err := rows.Scan(&o.ID, &o.CycleID, &o.UserID, &o.Date, &o.Scope,
			&o.Type, &o.Note, &o.CreatedBy, &o.Source); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		overrides = append(overrides, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overrides: %w", err)
	}

	return overrides, nil
}

// GetCycle retrieves a schedule cycle by id
func (d *DB) GetCycle(ctx context.Context, id string) (*model.ScheduleCycle, error) {
	var c model.ScheduleCycle
	err := d.conn.QueryRowContext(ctx, `
		SELECT id, label, start_date, end_date, published
		FROM schedule_cycle
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Label, &c.StartDate, &c.EndDate, &c.Published)
	if err != nil {
		if mapped := mapReadErr(err); errors.Is(mapped, db.ErrNotFound) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cycle: %w", err)
	}
	return &c, nil
}

const shiftColumns = `id, cycle_id, user_id, shift_date, shift_type, status, role,
	override_applied, override_reason, override_by, override_at`

func scanShift(row *sql.Row) (*model.Shift, error) {
	var s model.Shift
	err := row.Scan(&s.ID, &s.CycleID, &s.UserID, &s.Date, &s.ShiftType,
		&s.Status, &s.Role, &s.OverrideApplied, &s.OverrideReason,
		&s.OverrideBy, &s.OverrideAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetShift retrieves a shift by id
func (d *DB) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shift WHERE id = ?`, id)
	s, err := scanShift(row)
	if err != nil {
		if mapped := mapReadErr(err); errors.Is(mapped, db.ErrNotFound) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query shift: %w", err)
	}
	return s, nil
}

// FindShift retrieves a shift by its natural key
func (d *DB) FindShift(ctx context.Context, cycleID, userID, date string, shiftType model.ShiftType) (*model.Shift, error) {
	row := d.conn.QueryRowContext(ctx, `
		SELECT `+shiftColumns+`
		FROM shift
		WHERE cycle_id = ? AND user_id = ? AND shift_date = ? AND shift_type = ?
	`, cycleID, userID, date, shiftType)
	s, err := scanShift(row)
	if err != nil {
		if mapped := mapReadErr(err); errors.Is(mapped, db.ErrNotFound) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query shift by key: %w", err)
	}
	return s, nil
}

// ListSlotShifts retrieves all shifts in one (cycle, date, shift type) slot
func (d *DB) ListSlotShifts(ctx context.Context, cycleID, date string, shiftType model.ShiftType) ([]model.Shift, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+shiftColumns+`
		FROM shift
		WHERE cycle_id = ? AND shift_date = ? AND shift_type = ?
	`, cycleID, date, shiftType)
	if err != nil {
		return nil, fmt.Errorf("failed to query slot shifts: %w", err)
	}
	defer rows.Close()

	return collectShifts(rows)
}

// ListUserShiftsBetween retrieves a user's shifts with from <= date <= to,
// across all cycles
func (d *DB) ListUserShiftsBetween(ctx context.Context, userID, from, to string) ([]model.Shift, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+shiftColumns+`
		FROM shift
		WHERE user_id = ? AND shift_date >= ? AND shift_date <= ?
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query user shifts: %w", err)
	}
	defer rows.Close()

	return collectShifts(rows)
}

func collectShifts(rows *sql.Rows) ([]model.Shift, error) {
	var shifts []model.Shift
	for rows.Next() {
		var s model.Shift
		err := rows.Scan(&s.ID, &s.CycleID, &s.UserID, &s.Date, &s.ShiftType,
			&s.Status, &s.Role, &s.OverrideApplied, &s.OverrideReason,
			&s.OverrideBy, &s.OverrideAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}
	return shifts, nil
}

// InsertShift inserts a new shift row. A duplicate (cycle, user, date,
// shift type) surfaces as db.ErrDuplicate.
func (d *DB) InsertShift(ctx context.Context, s *model.Shift) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO shift (id, cycle_id, user_id, shift_date, shift_type, status, role,
		                   override_applied, override_reason, override_by, override_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.CycleID, s.UserID, s.Date, s.ShiftType, s.Status, s.Role,
		s.OverrideApplied, s.OverrideReason, s.OverrideBy, s.OverrideAt)
	if err != nil {
		if mapped := mapWriteErr(err); errors.Is(mapped, db.ErrDuplicate) {
			return db.ErrDuplicate
		}
		return fmt.Errorf("failed to insert shift: %w", err)
	}
	return nil
}

// UpdateShiftSlot relocates a shift in place, rewriting its slot and
// override metadata
func (d *DB) UpdateShiftSlot(ctx context.Context, s *model.Shift) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE shift
		SET shift_date = ?, shift_type = ?, override_applied = ?,
		    override_reason = ?, override_by = ?, override_at = ?
		WHERE id = ?
	`, s.Date, s.ShiftType, s.OverrideApplied, s.OverrideReason,
		s.OverrideBy, s.OverrideAt, s.ID)
	if err != nil {
		if mapped := mapWriteErr(err); errors.Is(mapped, db.ErrDuplicate) {
			return db.ErrDuplicate
		}
		return fmt.Errorf("failed to update shift slot: %w", err)
	}
	return checkAffected(res)
}

// SetShiftRole updates a shift's role. Promoting a second lead into a slot
// violates the partial unique index and surfaces as db.ErrDuplicate.
func (d *DB) SetShiftRole(ctx context.Context, shiftID string, role model.ShiftRole) error {
	res, err := d.conn.ExecContext(ctx, `UPDATE shift SET role = ? WHERE id = ?`, role, shiftID)
	if err != nil {
		if mapped := mapWriteErr(err); errors.Is(mapped, db.ErrDuplicate) {
			return db.ErrDuplicate
		}
		return fmt.Errorf("failed to set shift role: %w", err)
	}
	return checkAffected(res)
}

// SetShiftOverride stamps availability-override metadata onto an existing
// shift row
func (d *DB) SetShiftOverride(ctx context.Context, shiftID, reason, by, at string) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE shift
		SET override_applied = 1, override_reason = ?, override_by = ?, override_at = ?
		WHERE id = ?
	`, reason, by, at, shiftID)
	if err != nil {
		return fmt.Errorf("failed to set shift override: %w", err)
	}
	return checkAffected(res)
}

// DeleteShift deletes a shift row by id
func (d *DB) DeleteShift(ctx context.Context, shiftID string) error {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM shift WHERE id = ?`, shiftID)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return checkAffected(res)
}

// InsertAuditEntry appends one audit log row
func (d *DB) InsertAuditEntry(ctx context.Context, entry *db.AuditEntry) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor_id, action, target_type, target_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.ActorID, entry.Action, entry.TargetType, entry.TargetID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// InsertNotifications inserts notification rows in a single transaction
func (d *DB) InsertNotifications(ctx context.Context, notifications []db.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, n := range notifications {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO notification (id, user_id, event_type, title, message, target_type, target_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, n.ID, n.UserID, n.EventType, n.Title, n.Message, n.TargetType, n.TargetID, n.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}
