package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"healthviewer/internal/logging"
	"healthviewer/internal/metrics"
	"healthviewer/internal/report"
)

const (
	title   = "Health Assistant - Database Viewer"
	goodbye = "\n  Goodbye!\n"

	// maxLineLength bounds a single line of input.
	maxLineLength = 1 << 20
)

// line is one line of input, or the error that ended reading.
type line struct {
	text string
	err  error
}

// Reports is the set of actions the menu dispatches to.
type Reports interface {
	Users(ctx context.Context, w io.Writer) error
	Appointments(ctx context.Context, w io.Writer) error
	Statistics(ctx context.Context, w io.Writer) error
	RecentActivity(ctx context.Context, w io.Writer) error
	SearchUser(ctx context.Context, w io.Writer, email string) error
}

// Menu is the interactive read-dispatch loop.
type Menu struct {
	reports Reports
	out     io.Writer
	lines   <-chan line
	pause   bool
	logger  *logging.Logger
}

// Option configures a Menu.
type Option func(*Menu)

// WithPause controls whether the menu waits for Enter after each action.
func WithPause(pause bool) Option {
	return func(m *Menu) { m.pause = pause }
}

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(l *logging.Logger) Option {
	return func(m *Menu) { m.logger = l }
}

// New returns a Menu reading choices from in and printing to out. Input is
// consumed by a background goroutine so Run can return on cancellation.
func New(reports Reports, in io.Reader, out io.Writer, opts ...Option) *Menu {
	m := &Menu{
		reports: reports,
		out:     out,
		lines:   scanLines(in),
		pause:   true,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// scanLines feeds lines from in until EOF. A read failure is sent as the
// last item before the channel closes.
func scanLines(in io.Reader) <-chan line {
	lines := make(chan line)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
		for scanner.Scan() {
			lines <- line{text: scanner.Text()}
		}
		if err := scanner.Err(); err != nil {
			lines <- line{err: fmt.Errorf("reading input: %w", err)}
		}
	}()
	return lines
}

// Run shows the menu until the user exits, input ends, or ctx is cancelled;
// all three print the goodbye message and return nil. A failing report or
// an unreadable input is returned as is.
func (m *Menu) Run(ctx context.Context) error {
	for {
		m.printMenu()

		choice, err := m.prompt(ctx, "\n  Enter choice (1-6): ")
		if err != nil {
			return m.quit(err)
		}
		metrics.MenuChoices.WithLabelValues(choiceLabel(choice)).Inc()
		m.logger.Debugf("menu choice %q", choice)

		switch choice {
		case "1":
			report.Section(m.out, "ALL USERS")
			err = m.reports.Users(ctx, m.out)
		case "2":
			report.Section(m.out, "ALL APPOINTMENTS")
			err = m.reports.Appointments(ctx, m.out)
		case "3":
			report.Section(m.out, "DATABASE STATISTICS")
			err = m.reports.Statistics(ctx, m.out)
		case "4":
			report.Section(m.out, "RECENT ACTIVITY")
			err = m.reports.RecentActivity(ctx, m.out)
		case "5":
			email, perr := m.prompt(ctx, "\n  Enter email: ")
			if perr != nil {
				return m.quit(perr)
			}
			err = m.reports.SearchUser(ctx, m.out, email)
		case "6":
			fmt.Fprint(m.out, goodbye)
			return nil
		default:
			fmt.Fprintln(m.out, "\n  Invalid choice. Please try again.")
		}

		if err != nil {
			if ctx.Err() != nil {
				return m.quit(ctx.Err())
			}
			return err
		}

		if m.pause {
			if _, err := m.prompt(ctx, "\n  Press Enter to continue..."); err != nil {
				return m.quit(err)
			}
		}
	}
}

func (m *Menu) printMenu() {
	report.Section(m.out, title)
	fmt.Fprintln(m.out, "\n  Options:")
	fmt.Fprintln(m.out, "  1. View All Users")
	fmt.Fprintln(m.out, "  2. View All Appointments")
	fmt.Fprintln(m.out, "  3. View Statistics")
	fmt.Fprintln(m.out, "  4. View Recent Activity")
	fmt.Fprintln(m.out, "  5. Search User by Email")
	fmt.Fprintln(m.out, "  6. Exit")
}

// prompt prints label and waits for one trimmed line of input.
func (m *Menu) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(m.out, label)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-m.lines:
		if !ok {
			return "", io.EOF
		}
		if l.err != nil {
			return "", l.err
		}
		return strings.TrimSpace(l.text), nil
	}
}

// quit turns end of input and cancellation into a clean exit.
func (m *Menu) quit(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		m.logger.Debugf("menu stopping: %v", err)
		fmt.Fprint(m.out, "\n"+goodbye)
		return nil
	}
	return err
}

func choiceLabel(choice string) string {
	switch choice {
	case "1", "2", "3", "4", "5", "6":
		return choice
	default:
		return "invalid"
	}
}
