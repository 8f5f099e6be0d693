package report

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "Runner", 30, "Runner"},
		{"exactly limit", strings.Repeat("a", 30), 30, strings.Repeat("a", 30)},
		{"one over", strings.Repeat("a", 31), 30, strings.Repeat("a", 30) + "..."},
		{"multibyte", "héllo wörld", 5, "héllo..."},
		{"empty", "", 30, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}

func TestBio(t *testing.T) {
	assert.Equal(t, "N/A", Bio(sql.NullString{}, 30))
	assert.Equal(t, "N/A", Bio(sql.NullString{Valid: true}, 30))
	assert.Equal(t, "Loves hiking", Bio(sql.NullString{String: "Loves hiking", Valid: true}, 30))

	long := "I enjoy long walks on the beach and reading novels"
	assert.Equal(t, long[:30]+"...", Bio(sql.NullString{String: long, Valid: true}, 30))
}

func TestAge(t *testing.T) {
	assert.Equal(t, "N/A", Age(sql.NullInt64{}, "N/A"))
	assert.Equal(t, "Not set", Age(sql.NullInt64{}, "Not set"))
	assert.Equal(t, "N/A", Age(sql.NullInt64{Valid: true}, "N/A"))
	assert.Equal(t, "42", Age(sql.NullInt64{Int64: 42, Valid: true}, "N/A"))
}

func TestText(t *testing.T) {
	assert.Equal(t, "Unknown", Text(sql.NullString{}, "Unknown"))
	assert.Equal(t, "Unknown", Text(sql.NullString{Valid: true}, "Unknown"))
	assert.Equal(t, "Ava", Text(sql.NullString{String: "Ava", Valid: true}, "Unknown"))
}

func TestValue(t *testing.T) {
	assert.Equal(t, "N/A", Value("", "N/A"))
	assert.Equal(t, "a@x.com", Value("a@x.com", "N/A"))
}

func TestSection(t *testing.T) {
	var buf bytes.Buffer
	Section(&buf, "ALL USERS")

	lines := strings.Split(strings.TrimPrefix(buf.String(), "\n"), "\n")
	assert.Equal(t, strings.Repeat("=", 80), lines[0])
	assert.Equal(t, "  ALL USERS", lines[1])
	assert.Equal(t, strings.Repeat("=", 80), lines[2])
}

func TestRenderGrid(t *testing.T) {
	var buf bytes.Buffer
	renderGrid(&buf, []string{"Metric", "Value"}, [][]string{
		{"Total Users", "3"},
		{"Most Active User", "N/A"},
	})
	out := buf.String()

	// Headers are printed verbatim, not upper-cased
	assert.Contains(t, out, "Metric")
	assert.NotContains(t, out, "METRIC")
	assert.Contains(t, out, "Total Users")
	assert.Contains(t, out, "+")
	assert.Contains(t, out, "|")
}

func TestRenderSimple(t *testing.T) {
	var buf bytes.Buffer
	long := strings.Repeat("x", 60)
	renderSimple(&buf, []string{"Name", "Email"}, [][]string{{"Ava", long}})
	out := buf.String()

	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Ava")
	// No wrapping
	assert.Contains(t, out, long)
	assert.NotContains(t, out, "|")
	assert.NotContains(t, out, "+")
}
