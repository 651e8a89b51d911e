// schema.go holds the backend-neutral schema snapshot adapters return.
//
// The snapshot serves two consumers: the prompt builders, which need a
// compact text block an LLM can ground SQL generation on, and the TUI,
// which lists tables and columns for browsing.
package engine

import (
	"fmt"
	"strings"
)

// Column describes one table column.
type Column struct {
	Name       string
	DataType   string
	Nullable   bool
	PrimaryKey bool
}

// Table describes one table with its columns.
type Table struct {
	Name    string
	Columns []Column

	// RowEstimate is approximate for warehouse backends (planner
	// statistics) and exact for the embedded engine.
	RowEstimate int64
}

// Schema is a point-in-time snapshot of the bound dataset.
type Schema struct {
	Engine string
	Tables []Table
}

// Context renders the snapshot as a prompt block:
//
//	Table: orders (~1204 rows)
//	  - id bigint NOT NULL [PK]
//	  - amount numeric
//
// Kept deliberately terse; schema text competes with the question and
// failure history for prompt space.
func (s *Schema) Context() string {
	if s == nil || len(s.Tables) == 0 {
		return "(no tables found)"
	}

	var b strings.Builder
	for i, t := range s.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Table: %s", t.Name)
		if t.RowEstimate > 0 {
			fmt.Fprintf(&b, " (~%d rows)", t.RowEstimate)
		}
		b.WriteString("\n")
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "  - %s %s", c.Name, c.DataType)
			if !c.Nullable {
				b.WriteString(" NOT NULL")
			}
			if c.PrimaryKey {
				b.WriteString(" [PK]")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Table looks up a table by name, case-insensitively.
func (s *Schema) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Table{}, false
}
