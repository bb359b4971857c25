package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/db"
)

const shiftColumns = `id, cycle_id, user_id, to_char(shift_date, 'YYYY-MM-DD'),
	shift_type, status, role, override_applied, override_reason,
	override_by, override_at`

func scanShift(row pgx.Row) (*model.Shift, error) {
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
	row := d.pool.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shift WHERE id = $1`, id)
	s, err := scanShift(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query shift: %w", err)
	}
	return s, nil
}

// FindShift retrieves a shift by its natural key
func (d *DB) FindShift(ctx context.Context, cycleID, userID, date string, shiftType model.ShiftType) (*model.Shift, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+shiftColumns+`
		FROM shift
		WHERE cycle_id = $1 AND user_id = $2 AND shift_date = $3::date AND shift_type = $4
	`, cycleID, userID, date, shiftType)
	s, err := scanShift(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query shift by key: %w", err)
	}
	return s, nil
}

// ListSlotShifts retrieves all shifts in one (cycle, date, shift type) slot
func (d *DB) ListSlotShifts(ctx context.Context, cycleID, date string, shiftType model.ShiftType) ([]model.Shift, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM shift
		WHERE cycle_id = $1 AND shift_date = $2::date AND shift_type = $3
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
	rows, err := d.pool.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM shift
		WHERE user_id = $1 AND shift_date >= $2::date AND shift_date <= $3::date
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query user shifts: %w", err)
	}
	defer rows.Close()

	return collectShifts(rows)
}

func collectShifts(rows pgx.Rows) ([]model.Shift, error) {
	var shifts []model.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}
	return shifts, nil
}

// InsertShift inserts a new shift row. A duplicate (cycle, user, date,
// shift type) surfaces as db.ErrDuplicate.
func (d *DB) InsertShift(ctx context.Context, s *model.Shift) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO shift (id, cycle_id, user_id, shift_date, shift_type, status, role,
		                   override_applied, override_reason, override_by, override_at)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11)
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
	tag, err := d.pool.Exec(ctx, `
		UPDATE shift
		SET shift_date = $2::date, shift_type = $3, override_applied = $4,
		    override_reason = $5, override_by = $6, override_at = $7
		WHERE id = $1
	`, s.ID, s.Date, s.ShiftType, s.OverrideApplied, s.OverrideReason,
		s.OverrideBy, s.OverrideAt)
	if err != nil {
		if mapped := mapWriteErr(err); errors.Is(mapped, db.ErrDuplicate) {
			return db.ErrDuplicate
		}
		return fmt.Errorf("failed to update shift slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// SetShiftRole updates a shift's role. Promoting a second lead into a slot
// violates the partial unique index and surfaces as db.ErrDuplicate.
func (d *DB) SetShiftRole(ctx context.Context, shiftID string, role model.ShiftRole) error {
	tag, err := d.pool.Exec(ctx, `UPDATE shift SET role = $2 WHERE id = $1`, shiftID, role)
	if err != nil {
		if mapped := mapWriteErr(err); errors.Is(mapped, db.ErrDuplicate) {
			return db.ErrDuplicate
		}
		return fmt.Errorf("failed to set shift role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// SetShiftOverride stamps availability-override metadata onto an existing
// shift row
func (d *DB) SetShiftOverride(ctx context.Context, shiftID, reason, by, at string) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE shift
		SET override_applied = TRUE, override_reason = $2, override_by = $3, override_at = $4
		WHERE id = $1
	`, shiftID, reason, by, at)
	if err != nil {
		return fmt.Errorf("failed to set shift override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// DeleteShift deletes a shift row by id
func (d *DB) DeleteShift(ctx context.Context, shiftID string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM shift WHERE id = $1`, shiftID)
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
