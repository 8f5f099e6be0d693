package report

import (
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

const (
	notAvailable = "N/A"
	notSet       = "Not set"
	unknownUser  = "Unknown"
	bannerWidth  = 80
)

// Section prints a banner framing title between two rules.
func Section(w io.Writer, title string) {
	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintf(w, "\n%s\n  %s\n%s\n", rule, title, rule)
}

// Truncate shortens s to n runes followed by "..." when it is longer.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Bio renders an optional bio for the listing, truncated to n runes.
func Bio(bio sql.NullString, n int) string {
	if !bio.Valid || bio.String == "" {
		return notAvailable
	}
	return Truncate(bio.String, n)
}

// Age renders an optional age, using missing when it is absent or zero.
func Age(age sql.NullInt64, missing string) string {
	if !age.Valid || age.Int64 == 0 {
		return missing
	}
	return strconv.FormatInt(age.Int64, 10)
}

// Value returns s, or missing when s is empty.
func Value(s, missing string) string {
	if s == "" {
		return missing
	}
	return s
}

// Text renders an optional string, using missing when it is absent or empty.
func Text(s sql.NullString, missing string) string {
	if !s.Valid || s.String == "" {
		return missing
	}
	return s.String
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return t
}

// renderGrid draws a fully bordered table with a rule between every row.
func renderGrid(w io.Writer, header []string, rows [][]string) {
	t := newTable(w, header)
	t.SetRowLine(true)
	t.AppendBulk(rows)
	t.Render()
}

// renderSimple draws a borderless table with only a rule under the header.
func renderSimple(w io.Writer, header []string, rows [][]string) {
	t := newTable(w, header)
	t.SetBorder(false)
	t.SetHeaderLine(true)
	t.SetColumnSeparator(" ")
	t.SetCenterSeparator(" ")
	t.SetRowSeparator("-")
	t.AppendBulk(rows)
	t.Render()
}
