package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/psuflow/psuflow-api/internal/models"
)

const blockedSlotColumns = `id, faculty_id, to_char(date, 'YYYY-MM-DD') AS date, time, reason, created_at`

// BlockedSlotRepository persists provider-declared unavailability.
type BlockedSlotRepository struct {
	db *sqlx.DB
}

// NewBlockedSlotRepository constructs the repository.
func NewBlockedSlotRepository(db *sqlx.DB) *BlockedSlotRepository {
	return &BlockedSlotRepository{db: db}
}

// Create blocks a slot. When the slot is already blocked the existing row is returned with created=false.
// The insert holds the same slot advisory lock as booking, so a block and a booking of one slot never interleave.
func (r *BlockedSlotRepository) Create(ctx context.Context, block *models.BlockedSlot) (created bool, err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return false, fmt.Errorf("begin block transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const lockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`
	if _, err = tx.ExecContext(ctx, lockQuery, SlotLockKey(block.FacultyID, block.Date, block.Time)); err != nil {
		return false, fmt.Errorf("lock slot: %w", err)
	}

	const insertQuery = `INSERT INTO blocked_slots (faculty_id, date, time, reason)
VALUES ($1, $2, $3, $4)
ON CONFLICT (faculty_id, date, time) DO NOTHING
RETURNING ` + blockedSlotColumns
	err = tx.GetContext(ctx, block, insertQuery, block.FacultyID, block.Date, block.Time, block.Reason)
	switch {
	case err == nil:
		created = true
	case errors.Is(err, sql.ErrNoRows):
		const selectQuery = `SELECT ` + blockedSlotColumns + ` FROM blocked_slots WHERE faculty_id = $1 AND date = $2 AND time = $3`
		if err = tx.GetContext(ctx, block, selectQuery, block.FacultyID, block.Date, block.Time); err != nil {
			return false, fmt.Errorf("load blocked slot: %w", err)
		}
	default:
		return false, fmt.Errorf("create blocked slot: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit block transaction: %w", err)
	}
	return created, nil
}

// List returns a provider's blocks, optionally for one date, in calendar order.
func (r *BlockedSlotRepository) List(ctx context.Context, facultyID int64, date string) ([]models.BlockedSlot, error) {
	args := []interface{}{facultyID}
	query := `SELECT ` + blockedSlotColumns + ` FROM blocked_slots WHERE faculty_id = $1`
	if date != "" {
		args = append(args, date)
		query += " AND date = $2"
	}
	query += " ORDER BY date ASC, time ASC"

	var blocks []models.BlockedSlot
	if err := r.db.SelectContext(ctx, &blocks, query, args...); err != nil {
		return nil, fmt.Errorf("list blocked slots: %w", err)
	}
	return blocks, nil
}

// Delete removes a block and reports how many rows went away.
func (r *BlockedSlotRepository) Delete(ctx context.Context, facultyID int64, date, slot string) (int64, error) {
	const query = `DELETE FROM blocked_slots WHERE faculty_id = $1 AND date = $2 AND time = $3`
	result, err := r.db.ExecContext(ctx, query, facultyID, date, slot)
	if err != nil {
		return 0, fmt.Errorf("delete blocked slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check blocked slot delete rows: %w", err)
	}
	return rows, nil
}
