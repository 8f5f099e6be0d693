package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// User represents a user row as written by the producing application
type User struct {
	ID        string
	Name      string
	Email     string
	Age       sql.NullInt64
	Bio       sql.NullString
	CreatedAt string
}

const userColumns = `
	id, COALESCE(name, ''), email, age, bio,
	COALESCE(CAST(created_at AS TEXT), '')`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &u.Bio, &u.CreatedAt)
	return u, err
}

// ListUsers returns every user in storage order
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]User, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.q.QueryContext(ctx, `SELECT`+userColumns+` FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// RecentUsers returns the most recently created users, newest first
func (s *SQLiteStorage) RecentUsers(ctx context.Context, limit int) ([]User, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.q.QueryContext(ctx, `SELECT`+userColumns+`
		FROM users
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recent users: %w", err)
	}
	return users, nil
}

// GetUserByEmail looks a user up by exact email
func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	u, err := scanUser(s.q.QueryRowContext(ctx,
		`SELECT`+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user not found with email %s", ErrNotFound, email)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// CountUsers returns the number of user rows
func (s *SQLiteStorage) CountUsers(ctx context.Context) (int64, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var n int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
