package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/harborview-rehab/scheduler/pkg/core/model"
	"github.com/harborview-rehab/scheduler/pkg/db"
)

// GetCycle retrieves a schedule cycle by id
func (d *DB) GetCycle(ctx context.Context, id string) (*model.ScheduleCycle, error) {
	var c model.ScheduleCycle
	err := d.pool.QueryRow(ctx, `
		SELECT id, label, to_char(start_date, 'YYYY-MM-DD'),
		       to_char(end_date, 'YYYY-MM-DD'), published
		FROM schedule_cycle
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Label, &c.StartDate, &c.EndDate, &c.Published)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle: %w", err)
	}
	return &c, nil
}
