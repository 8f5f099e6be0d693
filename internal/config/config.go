package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultPath is where the viewer looks for its config file when
// VIEWER_CONFIG is unset.
const DefaultPath = "./configs/viewer.json"

// Config holds all configuration for the viewer.
type Config struct {
	DBPath           string   `json:"db_path" validate:"required"`
	LogLevel         string   `json:"log_level" validate:"oneof=debug info warn error"`
	DateLayout       string   `json:"date_layout" validate:"required"`
	RecentLimit      int      `json:"recent_limit" validate:"min=1,max=100"`
	BioPreviewLength int      `json:"bio_preview_length" validate:"min=1"`
	PauseAfterReport bool     `json:"pause_after_report"`
	BusyTimeout      Duration `json:"busy_timeout" validate:"min=1ms"`
	QueryTimeout     Duration `json:"query_timeout" validate:"min=100ms"`
	MetricsTextfile  string   `json:"metrics_textfile"`
}

// Duration is a wrapper around time.Duration that implements JSON marshaling/unmarshaling
type Duration struct {
	time.Duration
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("invalid duration")
	}
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DBPath:           "health_assistant.db",
		LogLevel:         "warn",
		DateLayout:       "2006-01-02",
		RecentLimit:      5,
		BioPreviewLength: 30,
		PauseAfterReport: true,
		BusyTimeout:      Duration{5 * time.Second},
		QueryTimeout:     Duration{5 * time.Second},
	}
}

// Load reads the config file at path if it exists, then applies
// environment overrides and validates. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := LoadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		d := Default()
		cfg = &d
	} else if err != nil {
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides overrides config fields with environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv("DATE_LAYOUT"); v != "" {
		c.DateLayout = v
	}

	if v := os.Getenv("RECENT_LIMIT"); v != "" {
		var err error
		c.RecentLimit, err = parseInt(v)
		if err != nil {
			return fmt.Errorf("parsing RECENT_LIMIT: %w", err)
		}
	}

	if v := os.Getenv("BIO_PREVIEW_LENGTH"); v != "" {
		var err error
		c.BioPreviewLength, err = parseInt(v)
		if err != nil {
			return fmt.Errorf("parsing BIO_PREVIEW_LENGTH: %w", err)
		}
	}

	if v := os.Getenv("PAUSE_AFTER_REPORT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing PAUSE_AFTER_REPORT: %w", err)
		}
		c.PauseAfterReport = b
	}

	// Timeouts
	if v := os.Getenv("BUSY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing BUSY_TIMEOUT: %w", err)
		}
		c.BusyTimeout = Duration{d}
	}
	if v := os.Getenv("QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing QUERY_TIMEOUT: %w", err)
		}
		c.QueryTimeout = Duration{d}
	}

	if v := os.Getenv("METRICS_TEXTFILE"); v != "" {
		c.MetricsTextfile = v
	}

	return nil
}

// validate checks the configuration for errors.
func (c *Config) validate() error {
	validate := validator.New()

	// Register custom validation for Duration
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if duration, ok := field.Interface().(Duration); ok {
			return duration.Duration
		}
		return nil
	}, Duration{})

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// A layout that formats to itself has no date verbs in it.
	if ref := time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC); ref.Format(c.DateLayout) == c.DateLayout {
		return fmt.Errorf("date layout %q has no date fields", c.DateLayout)
	}

	return nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}
