package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/db"
)

// GetUser retrieves a directory record by id
func (d *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := d.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, role, active, on_fmla,
		       employment_type, lead_eligible, weekly_shift_limit, shift_team
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &u.Active, &u.OnFMLA,
		&u.Employment, &u.LeadEligible, &u.WeeklyLimit, &u.ShiftTeam)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// GetWorkPattern retrieves a therapist's recurring-availability
// configuration. Returns db.ErrNotFound when the therapist has none.
func (d *DB) GetWorkPattern(ctx context.Context, userID string) (*model.WorkPattern, error) {
	var p model.WorkPattern
	var works, never string
	err := d.pool.QueryRow(ctx, `
		SELECT user_id, works_weekdays, never_weekdays, weekend_rotation,
		       anchor_saturday, enforcement, shift_preference
		FROM work_pattern
		WHERE user_id = $1
	`, userID).Scan(&p.UserID, &works, &never, &p.Rotation,
		&p.AnchorSaturday, &p.Enforcement, &p.ShiftPreference)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query work pattern: %w", err)
	}
	p.WorksWeekdays = db.ParseWeekdays(works)
	p.NeverWeekdays = db.ParseWeekdays(never)
	return &p, nil
}

// ListOverrides retrieves the availability overrides for one therapist on
// one date of a cycle
func (d *DB) ListOverrides(ctx context.Context, cycleID, userID, date string) ([]model.AvailabilityOverride, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, cycle_id, user_id, to_char(override_date, 'YYYY-MM-DD'),
		       scope, override_type, note, COALESCE(created_by::text, ''), source
		FROM availability_override
		WHERE cycle_id = $1 AND user_id = $2 AND override_date = $3::date
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
