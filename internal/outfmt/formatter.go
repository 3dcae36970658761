package outfmt

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rentportal/rentportal-cli/internal/filter"
)

// Formatter handles output formatting for commands.
type Formatter struct {
	ctx       context.Context
	out       io.Writer
	errOut    io.Writer
	tabWriter *tabwriter.Writer
}

// NewFormatter creates a new Formatter
func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		ctx:       ctx,
		out:       out,
		errOut:    errOut,
		tabWriter: tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output writes data as JSON when a JSON mode is active, applying the jq
// query from the context. In text mode it writes nothing and returns nil.
func (f *Formatter) Output(data any) error {
	if !IsJSON(f.ctx) {
		return nil
	}
	opts := FromContext(f.ctx)
	result := data
	if opts.Query != "" {
		filtered, err := filter.Apply(data, opts.Query)
		if err != nil {
			return err
		}
		result = filtered
	}
	if opts.Mode == JSONL {
		return f.writeLines(result)
	}
	return Encode(f.out, result, opts.Compact)
}

// writeLines emits each element of a slice on its own line; any other value
// is written as a single compact line.
func (f *Formatter) writeLines(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return Encode(f.out, data, true)
	}
	for i := 0; i < v.Len(); i++ {
		if err := Encode(f.out, v.Index(i).Interface(), true); err != nil {
			return err
		}
	}
	return nil
}

// StartTable writes table headers. Returns true if in text mode.
func (f *Formatter) StartTable(headers []string) bool {
	if IsJSON(f.ctx) {
		return false
	}
	f.Row(headers...)
	return true
}

// Row writes a single row to the table.
func (f *Formatter) Row(columns ...string) {
	_, _ = fmt.Fprintln(f.tabWriter, strings.Join(columns, "\t"))
}

// EndTable flushes the table output.
func (f *Formatter) EndTable() error {
	return f.tabWriter.Flush()
}

// Field writes a "label: value" line in text mode.
func (f *Formatter) Field(label, value string) {
	_, _ = fmt.Fprintf(f.out, "%s: %s\n", label, value)
}

// Section writes a blank line followed by a heading.
func (f *Formatter) Section(title string) {
	_, _ = fmt.Fprintf(f.out, "\n%s\n", title)
}

// Empty writes a message to stderr indicating no results.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}

// Success writes a confirmation message to stderr.
func (f *Formatter) Success(format string, args ...any) {
	_, _ = fmt.Fprintf(f.errOut, format+"\n", args...)
}

// FormatMoney renders an amount with two decimals and thousands separators.
func FormatMoney(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}

// FormatDate renders an RFC 3339 or date-only timestamp as YYYY-MM-DD.
// Unparseable values are returned unchanged; empty values render as "-".
func FormatDate(value string) string {
	if value == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return value
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n || n <= 3 {
		return s
	}
	return string(r[:n-3]) + "..."
}

// YesNo renders a boolean for tables.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
