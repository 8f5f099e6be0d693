// Package storagetest builds throwaway store files shaped like the ones the
// Health Assistant application writes, for tests of the read-only viewer.
package storagetest

import (
	"database/sql"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"healthviewer/internal/storage"
)

// Schema mirrors the tables created by the producing application.
const Schema = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT,
		age INTEGER,
		bio TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS appointments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_email TEXT NOT NULL,
		doctor TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		booked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
`

// Fixture is a writable store file on disk.
type Fixture struct {
	Path string
	db   *sql.DB
	t    testing.TB
}

// New creates an empty store with the application schema in a temp dir.
func New(t testing.TB) *Fixture {
	t.Helper()
	f := NewEmpty(t)
	_, err := f.db.Exec(Schema)
	require.NoError(t, err)
	return f
}

// NewNamed is New with a chosen file name inside the temp dir.
func NewNamed(t testing.TB, name string) *Fixture {
	t.Helper()
	f := newFile(t, name)
	_, err := f.db.Exec(Schema)
	require.NoError(t, err)
	return f
}

// NewEmpty creates a store file with no tables.
func NewEmpty(t testing.TB) *Fixture {
	t.Helper()
	return newFile(t, "health_assistant.db")
}

func newFile(t testing.TB, name string) *Fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	u := url.URL{Scheme: "file", Path: path, OmitHost: true}
	db, err := sql.Open("sqlite3", u.String())
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })
	return &Fixture{Path: path, db: db, t: t}
}

// Config returns a storage configuration pointing at the fixture.
func (f *Fixture) Config() storage.Config {
	cfg := storage.DefaultConfig()
	cfg.Path = f.Path
	cfg.QueryTimeout = 2 * time.Second
	return cfg
}

// Exec runs arbitrary SQL against the fixture.
func (f *Fixture) Exec(query string, args ...any) {
	f.t.Helper()
	_, err := f.db.Exec(query, args...)
	require.NoError(f.t, err)
}

// UserOpt tweaks a user row before insertion.
type UserOpt func(*storage.User)

func WithAge(age int64) UserOpt {
	return func(u *storage.User) { u.Age = sql.NullInt64{Int64: age, Valid: true} }
}

func WithBio(bio string) UserOpt {
	return func(u *storage.User) { u.Bio = sql.NullString{String: bio, Valid: true} }
}

func WithCreatedAt(ts string) UserOpt {
	return func(u *storage.User) { u.CreatedAt = ts }
}

// AddUser inserts a user and returns its id.
func (f *Fixture) AddUser(name, email string, opts ...UserOpt) int64 {
	f.t.Helper()
	u := storage.User{Name: name, Email: email}
	for _, opt := range opts {
		opt(&u)
	}

	var createdAt any
	if u.CreatedAt != "" {
		createdAt = u.CreatedAt
	}

	res, err := f.db.Exec(`
		INSERT INTO users (name, email, password, age, bio, created_at)
		VALUES (?, ?, 'x', ?, ?, COALESCE(?, CURRENT_TIMESTAMP))`,
		u.Name, u.Email, u.Age, u.Bio, createdAt)
	require.NoError(f.t, err)
	id, err := res.LastInsertId()
	require.NoError(f.t, err)
	return id
}

// AddAppointment inserts an appointment and returns its id. An empty
// bookedAt keeps the column default.
func (f *Fixture) AddAppointment(email, doctor, date, tm, bookedAt string) int64 {
	f.t.Helper()
	var booked any
	if bookedAt != "" {
		booked = bookedAt
	}

	res, err := f.db.Exec(`
		INSERT INTO appointments (user_email, doctor, date, time, booked_at)
		VALUES (?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))`,
		email, doctor, date, tm, booked)
	require.NoError(f.t, err)
	id, err := res.LastInsertId()
	require.NoError(f.t, err)
	return id
}
