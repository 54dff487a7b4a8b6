package models

import "time"

// Notification is an inbox message owned by its recipient.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	ToUserID  int64     `db:"to_user_id" json:"toUserId"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
