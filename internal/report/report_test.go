package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthviewer/internal/metrics"
	"healthviewer/internal/storage"
	"healthviewer/internal/storage/storagetest"
)

func newGenerator(f *storagetest.Fixture) *Generator {
	return New(f.Config(), DefaultOptions(), nil).WithClock(func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	})
}

// rowFor returns the first output line containing needle.
func rowFor(t *testing.T, out, needle string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, needle) {
			return line
		}
	}
	t.Fatalf("no line containing %q in:\n%s", needle, out)
	return ""
}

func TestGenerator_UsersEmpty(t *testing.T) {
	g := newGenerator(storagetest.New(t))

	var buf bytes.Buffer
	require.NoError(t, g.Users(context.Background(), &buf))
	assert.Equal(t, "No users found\n", buf.String())
}

func TestGenerator_Users(t *testing.T) {
	f := storagetest.New(t)
	longBio := "Enjoys cycling, baking sourdough and reading history books"
	f.AddUser("Ava Li", "ava@example.com",
		storagetest.WithAge(29),
		storagetest.WithBio(longBio),
		storagetest.WithCreatedAt("2024-04-01 10:00:00"))
	f.AddUser("Noah Diaz", "noah@example.com", storagetest.WithBio("Runner"))
	f.AddUser("Lena Ortiz", "lena@example.com")

	var buf bytes.Buffer
	require.NoError(t, newGenerator(f).Users(context.Background(), &buf))
	out := buf.String()

	ava := rowFor(t, out, "ava@example.com")
	assert.Contains(t, ava, "29")
	assert.Contains(t, ava, longBio[:30]+"...")
	assert.NotContains(t, ava, longBio)
	assert.Contains(t, ava, "2024-04-01 10:00:00")

	noah := rowFor(t, out, "noah@example.com")
	assert.Contains(t, noah, "Runner")
	assert.NotContains(t, noah, "Runner...")
	assert.Contains(t, noah, "N/A")

	lena := rowFor(t, out, "lena@example.com")
	assert.Equal(t, 2, strings.Count(lena, "N/A"))

	assert.Contains(t, out, "Created At")
	assert.Contains(t, out, "Total Users: 3")
}

func TestGenerator_AppointmentsUnknownUser(t *testing.T) {
	f := storagetest.New(t)
	f.AddUser("A", "a@x.com")
	f.AddAppointment("b@x.com", "Dr. Who", "2024-05-03", "10:00", "2024-04-01 09:00:00")

	var buf bytes.Buffer
	require.NoError(t, newGenerator(f).Appointments(context.Background(), &buf))
	out := buf.String()

	row := rowFor(t, out, "b@x.com")
	assert.Contains(t, row, "Unknown")
	assert.Contains(t, row, "Dr. Who")
	assert.Contains(t, out, "Total Appointments: 1")
}

func TestGenerator_AppointmentsNullEmail(t *testing.T) {
	f := storagetest.NewEmpty(t)
	f.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, email TEXT, age INTEGER, bio TEXT, created_at TIMESTAMP)`)
	f.Exec(`CREATE TABLE appointments (id INTEGER PRIMARY KEY, user_email TEXT, doctor TEXT, date TEXT, time TEXT, booked_at TIMESTAMP)`)
	f.Exec(`INSERT INTO appointments (user_email, doctor, date, time, booked_at) VALUES (NULL, 'Dr. Lee', '2024-05-03', '11:00', '2024-04-01 09:00:00')`)

	var buf bytes.Buffer
	require.NoError(t, newGenerator(f).Appointments(context.Background(), &buf))
	out := buf.String()

	row := rowFor(t, out, "Dr. Lee")
	assert.Contains(t, row, "Unknown")
	assert.Contains(t, row, "N/A")
	assert.Contains(t, out, "Total Appointments: 1")
}

func TestGenerator_AppointmentsSorted(t *testing.T) {
	f := storagetest.New(t)
	f.AddUser("Ava Li", "ava@example.com")
	f.AddAppointment("ava@example.com", "Dr. C", "2024-06-01", "09:00", "")
	f.AddAppointment("ava@example.com", "Dr. A", "2024-05-01", "14:00", "")
	f.AddAppointment("ava@example.com", "Dr. B", "2024-05-01", "15:00", "")

	var buf bytes.Buffer
	require.NoError(t, newGenerator(f).Appointments(context.Background(), &buf))
	out := buf.String()

	a := strings.Index(out, "Dr. A")
	b := strings.Index(out, "Dr. B")
	c := strings.Index(out, "Dr. C")
	assert.True(t, a < b && b < c, out)
}

func TestGenerator_AppointmentsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newGenerator(storagetest.New(t)).Appointments(context.Background(), &buf))
	assert.Equal(t, "No appointments found\n", buf.String())
}

func TestGenerator_StatisticsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newGenerator(storagetest.New(t)).Statistics(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, rowFor(t, out, "Total Users"), "0")
	assert.Contains(t, rowFor(t, out, "Total Appointments"), "0")
	assert.Contains(t, rowFor(t, out, "Today's Appointments"), "0")
	assert.Contains(t, rowFor(t, out, "Most Active User"), "N/A")
	assert.Contains(t, rowFor(t, out, "Most Booked Doctor"), "N/A")
}

func TestGenerator_Statistics(t *testing.T) {
	f := storagetest.New(t)
	f.AddUser("Ava Li", "ava@example.com")
	f.AddUser("Noah Diaz", "noah@example.com")
	f.AddAppointment("noah@example.com", "Dr. Smith", "2024-05-01", "09:00", "")
	f.AddAppointment("noah@example.com", "Dr. Smith", "2024-05-02", "09:00", "")
	f.AddAppointment("ava@example.com", "Dr. Jones", "2024-05-01", "10:00", "")

	var buf bytes.Buffer
	require.NoError(t, newGenerator(f).Statistics(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, rowFor(t, out, "Total Users"), "2")
	assert.Contains(t, rowFor(t, out, "Total Appointments"), "3")
	assert.Contains(t, rowFor(t, out, "Today's Appointments"), "2")
	assert.Contains(t, rowFor(t, out, "Most Active User"), "Noah Diaz (2 appointments)")
	assert.Contains(t, rowFor(t, out, "Most Booked Doctor"), "Dr. Smith (2 bookings)")
}

func TestGenerator_StatisticsNoActiveUser(t *testing.T) {
	f := storagetest.New(t)
	f.AddUser("Ava Li", "ava@example.com")
	f.AddAppointment("ghost@example.com", "Dr. Lee", "2024-04-30", "09:00", "")

	var buf bytes.Buffer
	require.NoError(t, newGenerator(f).Statistics(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, rowFor(t, out, "Most Active User"), "N/A")
	assert.Contains(t, rowFor(t, out, "Most Booked Doctor"), "Dr. Lee (1 bookings)")
	assert.Contains(t, rowFor(t, out, "Today's Appointments"), "0")
}

func TestGenerator_RecentActivityEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newGenerator(storagetest.New(t)).RecentActivity(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, "Recent Signups:\n  No users yet")
	assert.Contains(t, out, "Recent Appointments:\n  No appointments yet")
}

func TestGenerator_RecentActivityExcludesJoinMiss(t *testing.T) {
	f := storagetest.New(t)
	f.AddUser("A", "a@x.com")
	f.AddAppointment("b@x.com", "Dr. Who", "2024-05-03", "10:00", "")

	var buf bytes.Buffer
	require.NoError(t, newGenerator(f).RecentActivity(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, "a@x.com")
	assert.Contains(t, out, "Recent Appointments:\n  No appointments yet")
	assert.NotContains(t, out, "Dr. Who")
}

func TestGenerator_RecentActivityLimit(t *testing.T) {
	f := storagetest.New(t)
	f.AddUser("Old", "old@example.com", storagetest.WithCreatedAt("2023-01-01 00:00:00"))
	for i := 0; i < 5; i++ {
		f.AddUser("New", string(rune('a'+i))+"@example.com", storagetest.WithCreatedAt("2024-01-0"+string(rune('1'+i))+" 00:00:00"))
	}
	f.AddAppointment("a@example.com", "Dr. Smith", "2024-05-01", "09:00", "2024-04-01 00:00:00")

	var buf bytes.Buffer
	require.NoError(t, newGenerator(f).RecentActivity(context.Background(), &buf))
	out := buf.String()

	assert.NotContains(t, out, "old@example.com")
	assert.Contains(t, out, "e@example.com")
	row := rowFor(t, out, "Dr. Smith")
	assert.Contains(t, row, "New")
	assert.Contains(t, row, "2024-04-01 00:00:00")
}

func TestGenerator_SearchUserNotFound(t *testing.T) {
	f := storagetest.New(t)
	f.AddUser("Ava Li", "ava@example.com")

	var buf bytes.Buffer
	require.NoError(t, newGenerator(f).SearchUser(context.Background(), &buf, "missing@example.com"))
	assert.Equal(t, "User not found: missing@example.com\n", buf.String())

	buf.Reset()
	require.NoError(t, newGenerator(f).SearchUser(context.Background(), &buf, ""))
	assert.Equal(t, "User not found: \n", buf.String())
}

func TestGenerator_SearchUser(t *testing.T) {
	f := storagetest.New(t)
	f.AddUser("Ava Li", "ava@example.com",
		storagetest.WithAge(29),
		storagetest.WithBio("Enjoys cycling, baking sourdough and reading history books"),
		storagetest.WithCreatedAt("2024-04-01 10:00:00"))
	f.AddAppointment("ava@example.com", "Dr. Jones", "2024-06-01", "09:00", "")
	f.AddAppointment("ava@example.com", "Dr. Smith", "2024-05-01", "14:00", "")

	var buf bytes.Buffer
	require.NoError(t, newGenerator(f).SearchUser(context.Background(), &buf, "ava@example.com"))
	out := buf.String()

	assert.Contains(t, out, "User Details:")
	assert.Contains(t, out, "  ID: 1\n")
	assert.Contains(t, out, "  Name: Ava Li\n")
	assert.Contains(t, out, "  Age: 29\n")
	// The detail view shows the full bio
	assert.Contains(t, out, "  Bio: Enjoys cycling, baking sourdough and reading history books\n")
	assert.Contains(t, out, "  Joined: 2024-04-01 10:00:00\n")
	assert.Contains(t, out, "Appointments (2):")
	assert.Less(t, strings.Index(out, "Dr. Smith"), strings.Index(out, "Dr. Jones"))
}

func TestGenerator_SearchUserNoOptionalFields(t *testing.T) {
	f := storagetest.New(t)
	f.AddUser("Noah Diaz", "noah@example.com")

	var buf bytes.Buffer
	require.NoError(t, newGenerator(f).SearchUser(context.Background(), &buf, "noah@example.com"))
	out := buf.String()

	assert.Contains(t, out, "  Age: Not set\n")
	assert.Contains(t, out, "  Bio: Not set\n")
	assert.Contains(t, out, "Appointments (0):\n  No appointments\n")
}

type failingReader struct {
	storage.Reader
	closed bool
}

func (r *failingReader) ListUsers(ctx context.Context) ([]storage.User, error) {
	return nil, errors.New("disk I/O error")
}

func (r *failingReader) Close() error {
	r.closed = true
	return nil
}

func TestGenerator_ErrorClosesAndCounts(t *testing.T) {
	reader := &failingReader{}
	g := NewWithOpener(func() (storage.Reader, error) { return reader, nil }, DefaultOptions(), nil)

	before := testutil.ToFloat64(metrics.ReportFailures.WithLabelValues(ReportUsers))

	var buf bytes.Buffer
	err := g.Users(context.Background(), &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.True(t, reader.closed)
	assert.Empty(t, buf.String())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ReportFailures.WithLabelValues(ReportUsers)))
}

func TestGenerator_OpenError(t *testing.T) {
	cfg := storage.DefaultConfig()
	cfg.Path = t.TempDir() + "/missing.db"
	g := New(cfg, DefaultOptions(), nil)

	err := g.Statistics(context.Background(), &bytes.Buffer{})
	assert.ErrorIs(t, err, storage.ErrDatabaseNotFound)
}

func TestGenerator_OpensFreshConnectionPerReport(t *testing.T) {
	f := storagetest.New(t)
	opened := 0
	g := NewWithOpener(func() (storage.Reader, error) {
		opened++
		return storage.Open(f.Config())
	}, DefaultOptions(), nil)

	ctx := context.Background()
	var buf bytes.Buffer
	require.NoError(t, g.Users(ctx, &buf))
	require.NoError(t, g.Appointments(ctx, &buf))
	require.NoError(t, g.SearchUser(ctx, &buf, "x@example.com"))
	assert.Equal(t, 3, opened)
}
