package storage

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds the database configuration
type Config struct {
	Path         string        // Path to the SQLite database file
	BusyTimeout  time.Duration // SQLite busy timeout
	QueryTimeout time.Duration // Upper bound for a single read
}

// DefaultConfig returns a default database configuration
func DefaultConfig() Config {
	return Config{
		Path:         "health_assistant.db",
		BusyTimeout:  5 * time.Second,
		QueryTimeout: 5 * time.Second,
	}
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: database path cannot be empty", ErrInvalidInput)
	}

	if c.BusyTimeout <= 0 {
		return fmt.Errorf("%w: busy timeout must be positive", ErrInvalidInput)
	}

	if c.QueryTimeout <= 0 {
		return fmt.Errorf("%w: query timeout must be positive", ErrInvalidInput)
	}

	return nil
}

// DSN builds a read-only URI for the sqlite3 driver. The path is
// percent-encoded so '#', '?' and '%' in file names reach SQLite intact.
func (c Config) DSN() string {
	q := url.Values{}
	q.Set("mode", "ro")
	q.Set("_busy_timeout", fmt.Sprintf("%d", c.BusyTimeout.Milliseconds()))
	u := url.URL{Scheme: "file", Path: c.Path, OmitHost: true, RawQuery: q.Encode()}
	return u.String()
}
