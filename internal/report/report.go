// Package report renders the viewer's fixed reports. Every report opens
// its own read-only connection, runs its queries, prints, and closes.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"healthviewer/internal/logging"
	"healthviewer/internal/metrics"
	"healthviewer/internal/storage"
)

// Report names, used as metric labels and in log lines.
const (
	ReportUsers        = "users"
	ReportAppointments = "appointments"
	ReportStatistics   = "statistics"
	ReportRecent       = "recent_activity"
	ReportSearch       = "search_user"
)

// Options tune how reports are rendered.
type Options struct {
	RecentLimit int    // rows in each Recent Activity table
	BioPreview  int    // runes of bio shown in the user listing
	DateLayout  string // layout of stored appointment dates
}

// DefaultOptions returns the options used by the producing application's data.
func DefaultOptions() Options {
	return Options{
		RecentLimit: 5,
		BioPreview:  30,
		DateLayout:  "2006-01-02",
	}
}

// Opener returns a fresh connection to the store.
type Opener func() (storage.Reader, error)

// Generator runs reports against the store.
type Generator struct {
	open   Opener
	opts   Options
	now    func() time.Time
	logger *logging.Logger
}

// New returns a Generator that opens cfg for every report.
func New(cfg storage.Config, opts Options, logger *logging.Logger) *Generator {
	return NewWithOpener(func() (storage.Reader, error) {
		return storage.Open(cfg)
	}, opts, logger)
}

// NewWithOpener returns a Generator using open for every report.
func NewWithOpener(open Opener, opts Options, logger *logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{
		open:   open,
		opts:   opts,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the clock used to decide what "today" is.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

func (g *Generator) run(ctx context.Context, name string, fn func(storage.Reader) error) (err error) {
	timer := prometheus.NewTimer(metrics.ReportDuration.WithLabelValues(name))
	defer func() {
		d := timer.ObserveDuration()
		metrics.ReportsRun.WithLabelValues(name).Inc()
		if err != nil {
			metrics.ReportFailures.WithLabelValues(name).Inc()
			g.logger.Errorf("report %s failed after %s: %v", name, d, err)
			return
		}
		g.logger.Debugf("report %s finished in %s", name, d)
	}()

	r, err := g.open()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			g.logger.Warnf("closing store after %s: %v", name, cerr)
		}
	}()

	return fn(r)
}

// Users prints every user as a grid table followed by a count.
func (g *Generator) Users(ctx context.Context, w io.Writer) error {
	return g.run(ctx, ReportUsers, func(r storage.Reader) error {
		users, err := r.ListUsers(ctx)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Fprintln(w, "No users found")
			return nil
		}

		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, []string{
				u.ID,
				u.Name,
				u.Email,
				Age(u.Age, notAvailable),
				Bio(u.Bio, g.opts.BioPreview),
				u.CreatedAt,
			})
		}
		renderGrid(w, []string{"ID", "Name", "Email", "Age", "Bio", "Created At"}, rows)
		fmt.Fprintf(w, "\nTotal Users: %d\n", len(users))
		return nil
	})
}

// Appointments prints every appointment by date and time. Appointments
// whose user no longer exists show "Unknown".
func (g *Generator) Appointments(ctx context.Context, w io.Writer) error {
	return g.run(ctx, ReportAppointments, func(r storage.Reader) error {
		appts, err := r.ListAppointments(ctx)
		if err != nil {
			return err
		}
		if len(appts) == 0 {
			fmt.Fprintln(w, "No appointments found")
			return nil
		}

		rows := make([][]string, 0, len(appts))
		for _, a := range appts {
			rows = append(rows, []string{
				a.ID,
				Text(a.UserName, unknownUser),
				Value(a.UserEmail, notAvailable),
				a.Doctor,
				a.Date,
				a.Time,
				a.BookedAt,
			})
		}
		renderGrid(w, []string{"ID", "User", "Email", "Doctor", "Date", "Time", "Booked At"}, rows)
		fmt.Fprintf(w, "\nTotal Appointments: %d\n", len(appts))
		return nil
	})
}

// Statistics prints the store-wide metric table.
func (g *Generator) Statistics(ctx context.Context, w io.Writer) error {
	return g.run(ctx, ReportStatistics, func(r storage.Reader) error {
		today := g.now().Format(g.opts.DateLayout)
		stats, err := r.GetStats(ctx, today)
		if err != nil {
			return err
		}

		activeUser := notAvailable
		if u := stats.MostActiveUser; u != nil && u.Count > 0 {
			activeUser = fmt.Sprintf("%s (%d appointments)", u.Name, u.Count)
		}
		doctor := notAvailable
		if d := stats.MostBookedDoctor; d != nil && d.Count > 0 {
			doctor = fmt.Sprintf("%s (%d bookings)", d.Name, d.Count)
		}

		renderGrid(w, []string{"Metric", "Value"}, [][]string{
			{"Total Users", strconv.FormatInt(stats.TotalUsers, 10)},
			{"Total Appointments", strconv.FormatInt(stats.TotalAppointments, 10)},
			{"Today's Appointments", strconv.FormatInt(stats.TodayAppointments, 10)},
			{"Most Active User", activeUser},
			{"Most Booked Doctor", doctor},
		})
		return nil
	})
}

// RecentActivity prints the newest signups and the newest bookings of
// known users.
func (g *Generator) RecentActivity(ctx context.Context, w io.Writer) error {
	return g.run(ctx, ReportRecent, func(r storage.Reader) error {
		users, err := r.RecentUsers(ctx, g.opts.RecentLimit)
		if err != nil {
			return err
		}
		appts, err := r.RecentAppointments(ctx, g.opts.RecentLimit)
		if err != nil {
			return err
		}

		fmt.Fprintln(w, "\nRecent Signups:")
		if len(users) == 0 {
			fmt.Fprintln(w, "  No users yet")
		} else {
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.Name, u.Email, u.CreatedAt})
			}
			renderSimple(w, []string{"Name", "Email", "Joined"}, rows)
		}

		fmt.Fprintln(w, "\nRecent Appointments:")
		if len(appts) == 0 {
			fmt.Fprintln(w, "  No appointments yet")
		} else {
			rows := make([][]string, 0, len(appts))
			for _, a := range appts {
				rows = append(rows, []string{a.UserName.String, a.Doctor, a.Date, a.Time, a.BookedAt})
			}
			renderSimple(w, []string{"User", "Doctor", "Date", "Time", "Booked"}, rows)
		}
		return nil
	})
}

// SearchUser prints one user's details and appointments. A miss prints a
// notice and is not an error.
func (g *Generator) SearchUser(ctx context.Context, w io.Writer, email string) error {
	return g.run(ctx, ReportSearch, func(r storage.Reader) error {
		user, err := r.GetUserByEmail(ctx, email)
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidInput) {
			fmt.Fprintf(w, "User not found: %s\n", email)
			return nil
		}
		if err != nil {
			return err
		}

		appts, err := r.ListAppointmentsByEmail(ctx, user.Email)
		if err != nil {
			return err
		}

		fmt.Fprintln(w, "\nUser Details:")
		fmt.Fprintf(w, "  ID: %s\n", user.ID)
		fmt.Fprintf(w, "  Name: %s\n", user.Name)
		fmt.Fprintf(w, "  Email: %s\n", user.Email)
		fmt.Fprintf(w, "  Age: %s\n", Age(user.Age, notSet))
		fmt.Fprintf(w, "  Bio: %s\n", Text(user.Bio, notSet))
		fmt.Fprintf(w, "  Joined: %s\n", user.CreatedAt)

		fmt.Fprintf(w, "\nAppointments (%d):\n", len(appts))
		if len(appts) == 0 {
			fmt.Fprintln(w, "  No appointments")
			return nil
		}
		rows := make([][]string, 0, len(appts))
		for _, a := range appts {
			rows = append(rows, []string{a.ID, a.Doctor, a.Date, a.Time})
		}
		renderSimple(w, []string{"ID", "Doctor", "Date", "Time"}, rows)
		return nil
	})
}
