package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/psuflow/psuflow-api/internal/models"
)

const userColumns = `id, username, name, password_hash, role, staff_category, created_at, updated_at`

// UserRepository provides database access for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by login name.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Insert creates a user unless the username is already taken; created reports which happened.
func (r *UserRepository) Insert(ctx context.Context, user *models.User) (bool, error) {
	const query = `INSERT INTO users (username, name, password_hash, role, staff_category)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (username) DO NOTHING
RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, user.Username, user.Name, user.PasswordHash, user.Role, user.StaffCategory)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("insert user: %w", err)
	}
	return true, nil
}

// Upsert creates the user or overwrites the profile and password of an existing username.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	const query = `INSERT INTO users (username, name, password_hash, role, staff_category)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (username) DO UPDATE SET
	name = EXCLUDED.name,
	password_hash = EXCLUDED.password_hash,
	role = EXCLUDED.role,
	staff_category = EXCLUDED.staff_category,
	updated_at = NOW()
RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, user.Username, user.Name, user.PasswordHash, user.Role, user.StaffCategory)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
