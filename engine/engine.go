package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Engine is the uniform execution capability the orchestrator works with.
// An instance is already bound to its dataset (file path, DSN) at
// construction; the orchestrator never special-cases engine identity
// beyond picking the next handle in priority order.
type Engine interface {
	// Name returns the engine identifier used in attempt records,
	// e.g. "sqlite" or "postgres".
	Name() string

	// Execute runs a read-only SQL statement against the bound dataset.
	// Every failure is an *Error carrying one of the four ErrorKinds.
	Execute(ctx context.Context, sql string) (*RowSet, error)

	// Schema describes the tables of the bound dataset.
	Schema(ctx context.Context) (*Schema, error)

	// Close releases the underlying connection resources.
	Close()
}

// RowSet holds the output of one successful query.
type RowSet struct {
	Columns   []string
	Rows      [][]string
	RowCount  int
	Truncated bool // row cap hit, more rows existed
	Elapsed   time.Duration
}

// Status renders a psql-style result line, e.g. "(5 rows)".
func (r *RowSet) Status() string {
	s := fmt.Sprintf("(%d row%s", r.RowCount, plural(r.RowCount))
	if r.Truncated {
		s += ", truncated"
	}
	return s + ")"
}

// Preview flattens the first rows into a single line capped at n runes,
// suitable for attempt records and logs.
func (r *RowSet) Preview(n int) string {
	var b strings.Builder
	b.WriteString(strings.Join(r.Columns, ", "))
	for _, row := range r.Rows {
		b.WriteString(" | ")
		b.WriteString(strings.Join(row, ", "))
		if b.Len() > n {
			break
		}
	}
	out := b.String()
	if len(out) > n {
		runes := []rune(out)
		if len(runes) > n {
			return string(runes[:n]) + "…"
		}
	}
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// maxTableCell caps a rendered column so one wide value cannot push the
// rest of the grid off screen.
const maxTableCell = 50

// Table renders the result as plain text grid lines: header, separator,
// rows, then the status line. Styling is left to the caller.
func (r *RowSet) Table() []string {
	if r == nil || len(r.Columns) == 0 {
		return []string{"(no columns)"}
	}

	widths := make([]int, len(r.Columns))
	for i, col := range r.Columns {
		widths[i] = len([]rune(col))
	}
	for _, row := range r.Rows {
		for i, cell := range row {
			if i < len(widths) {
				if l := len([]rune(cell)); l > widths[i] {
					widths[i] = l
				}
			}
		}
	}
	for i := range widths {
		if widths[i] > maxTableCell {
			widths[i] = maxTableCell
		}
	}

	var header, sep strings.Builder
	for i, col := range r.Columns {
		header.WriteString(" " + padCell(col, widths[i]) + " │")
		sep.WriteString(strings.Repeat("─", widths[i]+2) + "┼")
	}

	lines := []string{
		strings.TrimRight(header.String(), "│"),
		strings.TrimRight(sep.String(), "┼"),
	}
	for _, row := range r.Rows {
		var line strings.Builder
		for i, cell := range row {
			if i < len(widths) {
				line.WriteString(" " + padCell(cell, widths[i]) + " │")
			}
		}
		lines = append(lines, strings.TrimRight(line.String(), "│"))
	}

	lines = append(lines, "", r.Status())
	return lines
}

// padCell clips to w runes then pads with spaces; fmt's %-*s pads by
// bytes and misaligns multibyte cells.
func padCell(s string, w int) string {
	runes := []rune(s)
	if len(runes) > w {
		if w <= 1 {
			s = string(runes[:w])
		} else {
			s = string(runes[:w-1]) + "…"
		}
		runes = []rune(s)
	}
	if n := w - len(runes); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// formatValue renders one scanned cell the way the result grid shows it.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
