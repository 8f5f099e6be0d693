package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Ranked is the leader of a grouped count
type Ranked struct {
	Name  string
	Email string // empty for doctors
	Count int64
}

// Stats represents store-wide statistics
type Stats struct {
	TotalUsers        int64   // Number of user rows
	TotalAppointments int64   // Number of appointment rows
	TodayAppointments int64   // Appointments whose date equals the requested day
	MostActiveUser    *Ranked // nil when there are no users
	MostBookedDoctor  *Ranked // nil when there are no appointments
}

// MostActiveUser returns the user with the most appointments. Users with no
// appointments count as zero. Ties resolve to whichever row SQLite returns first.
func (s *SQLiteStorage) MostActiveUser(ctx context.Context) (*Ranked, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	r := &Ranked{}
	err := s.q.QueryRowContext(ctx, `
		SELECT COALESCE(u.name, ''), u.email, COUNT(a.id) AS appt_count
		FROM users u
		LEFT JOIN appointments a ON u.email = a.user_email
		GROUP BY u.email
		ORDER BY appt_count DESC
		LIMIT 1
	`).Scan(&r.Name, &r.Email, &r.Count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get most active user: %w", err)
	}
	return r, nil
}

// MostBookedDoctor returns the doctor named on the most appointments
func (s *SQLiteStorage) MostBookedDoctor(ctx context.Context) (*Ranked, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	r := &Ranked{}
	err := s.q.QueryRowContext(ctx, `
		SELECT COALESCE(doctor, ''), COUNT(*) AS count
		FROM appointments
		GROUP BY doctor
		ORDER BY count DESC
		LIMIT 1
	`).Scan(&r.Name, &r.Count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get most booked doctor: %w", err)
	}
	return r, nil
}

// GetStats collects every statistic from one read snapshot. today must
// use the same layout as the stored appointment dates.
func (s *SQLiteStorage) GetStats(ctx context.Context, today string) (*Stats, error) {
	stats := &Stats{}
	err := s.withSnapshot(ctx, func(v *SQLiteStorage) error {
		var err error
		if stats.TotalUsers, err = v.CountUsers(ctx); err != nil {
			return err
		}
		if stats.TotalAppointments, err = v.CountAppointments(ctx); err != nil {
			return err
		}
		if stats.TodayAppointments, err = v.CountAppointmentsOn(ctx, today); err != nil {
			return err
		}
		if stats.MostActiveUser, err = v.MostActiveUser(ctx); err != nil {
			return err
		}
		stats.MostBookedDoctor, err = v.MostBookedDoctor(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
