package storage

import (
	"context"
)

// Reader defines the read operations the reports run against one
// open connection to the store.
type Reader interface {
	ListUsers(ctx context.Context) ([]User, error)
	ListAppointments(ctx context.Context) ([]Appointment, error)
	GetStats(ctx context.Context, today string) (*Stats, error)
	RecentUsers(ctx context.Context, limit int) ([]User, error)
	RecentAppointments(ctx context.Context, limit int) ([]Appointment, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListAppointmentsByEmail(ctx context.Context, email string) ([]Appointment, error)
	Close() error
}

var _ Reader = (*SQLiteStorage)(nil)
