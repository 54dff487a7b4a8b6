package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/psuflow/psuflow-api/internal/models"
)

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Latest returns the most recent active announcement or sql.ErrNoRows.
func (r *AnnouncementRepository) Latest(ctx context.Context) (*models.Announcement, error) {
	const query = `SELECT id, message, active, created_at, updated_at FROM announcements
WHERE active = TRUE ORDER BY created_at DESC, id DESC LIMIT 1`
	var ann models.Announcement
	if err := r.db.GetContext(ctx, &ann, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("latest announcement: %w", err)
	}
	return &ann, nil
}
