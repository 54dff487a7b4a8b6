package models

import "time"

// Announcement is a campus-wide message shown on the dashboards.
type Announcement struct {
	ID        int64     `db:"id" json:"id"`
	Message   string    `db:"message" json:"message"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
