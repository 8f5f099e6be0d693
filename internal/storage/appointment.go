package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Appointment is an appointment row, optionally resolved to its user's name.
// UserName is invalid when the appointment's email matches no user.
type Appointment struct {
	ID        string
	UserEmail string // empty when the row has no email
	UserName  sql.NullString
	Doctor    string
	Date      string
	Time      string
	BookedAt  string
}

const appointmentColumns = `
			a.id, COALESCE(a.user_email, ''), u.name,
			COALESCE(a.doctor, ''),
			COALESCE(CAST(a.date AS TEXT), ''),
			COALESCE(CAST(a.time AS TEXT), ''),
			COALESCE(CAST(a.booked_at AS TEXT), '')`

func (s *SQLiteStorage) queryAppointments(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.UserEmail, &a.UserName, &a.Doctor,
			&a.Date, &a.Time, &a.BookedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}
	return out, nil
}

// ListAppointments returns every appointment ordered by date then time.
// Appointments whose user is unknown are included with an invalid UserName.
func (s *SQLiteStorage) ListAppointments(ctx context.Context) ([]Appointment, error) {
	return s.queryAppointments(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments a
		LEFT JOIN users u ON a.user_email = u.email
		ORDER BY a.date, a.time`)
}

// RecentAppointments returns the most recently booked appointments that
// belong to a known user, newest first
func (s *SQLiteStorage) RecentAppointments(ctx context.Context, limit int) ([]Appointment, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	return s.queryAppointments(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments a
		JOIN users u ON a.user_email = u.email
		ORDER BY a.booked_at DESC
		LIMIT ?`, limit)
}

// ListAppointmentsByEmail returns one user's appointments ordered by date then time
func (s *SQLiteStorage) ListAppointmentsByEmail(ctx context.Context, email string) ([]Appointment, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}
	return s.queryAppointments(ctx, `
		SELECT`+appointmentColumns+`
		FROM appointments a
		LEFT JOIN users u ON a.user_email = u.email
		WHERE a.user_email = ?
		ORDER BY a.date, a.time`, email)
}

// CountAppointments returns the number of appointment rows
func (s *SQLiteStorage) CountAppointments(ctx context.Context) (int64, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var n int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return n, nil
}

// CountAppointmentsOn counts appointments whose stored date equals date exactly
func (s *SQLiteStorage) CountAppointmentsOn(ctx context.Context, date string) (int64, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var n int64
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE CAST(date AS TEXT) = ?`, date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments on %s: %w", date, err)
	}
	return n, nil
}
