package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
	"github.com/ndewijer/portfolio-engine/internal/model"
)

// UserRepository provides data access methods for the user_account table.
type UserRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewUserRepository creates a new UserRepository with the provided database connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{db: r.db, tx: tx}
}

func (r *UserRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetUser retrieves a single user by ID.
// Returns apperrors.ErrUserNotFound when no row matches.
func (r *UserRepository) GetUser(ctx context.Context, userID string) (model.User, error) {
	query := `
		SELECT id, name, created_at
		FROM user_account
		WHERE id = ?
	`

	var u model.User
	var createdAtStr string
	err := r.getQuerier().QueryRowContext(ctx, query, userID).Scan(&u.ID, &u.Name, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to query user_account table: %w", err)
	}

	u.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.User{}, err
	}

	return u, nil
}

// InsertUser stores a user. An empty ID is replaced with a new UUID.
func (r *UserRepository) InsertUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	query := `INSERT INTO user_account (id, name, created_at) VALUES (?, ?, ?)`
	_, err := r.getQuerier().ExecContext(ctx, query, u.ID, u.Name, u.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}
