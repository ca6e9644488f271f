package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mukisa/dukabook/internal/domain"
	"github.com/mukisa/dukabook/internal/store"
)

// CreateUser inserts an owner account. The password hash is produced by the
// auth package; this layer never sees plaintext.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, business_name, currency)
		 VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.BusinessName, u.Currency,
	)
	if err != nil {
		return fmt.Errorf("creating user %s: %w", u.Username, err)
	}
	return nil
}

// GetUserByUsername retrieves a user for login.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, business_name, currency, created_at
		 FROM users WHERE username = ?`,
		username,
	)

	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.BusinessName, &u.Currency, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user %s: %w", username, err)
	}
	return &u, nil
}

// FirstUser returns the earliest registered user, or store.ErrNotFound when
// none exist. Single-owner deployments use this as the implicit owner.
func (s *Store) FirstUser(ctx context.Context) (*domain.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, business_name, currency, created_at
		 FROM users ORDER BY created_at ASC, id ASC LIMIT 1`,
	)

	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.BusinessName, &u.Currency, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up first user: %w", err)
	}
	return &u, nil
}

// UserCount returns the number of registered users.
func (s *Store) UserCount(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
