package engine

import (
	"strings"
	"testing"
)

func TestSchemaContext(t *testing.T) {
	s := &Schema{
		Engine: "warehouse",
		Tables: []Table{
			{
				Name:        "orders",
				RowEstimate: 1204,
				Columns: []Column{
					{Name: "id", DataType: "bigint", PrimaryKey: true},
					{Name: "amount", DataType: "numeric", Nullable: true},
				},
			},
			{
				Name: "regions",
				Columns: []Column{
					{Name: "code", DataType: "text", Nullable: true},
				},
			},
		},
	}

	got := s.Context()
	for _, want := range []string{
		"Table: orders (~1204 rows)",
		"- id bigint NOT NULL [PK]",
		"- amount numeric",
		"Table: regions",
		"- code text",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "regions (~") {
		t.Error("zero estimate should not be rendered")
	}
}

func TestSchemaContextEmpty(t *testing.T) {
	var nilSchema *Schema
	if got := nilSchema.Context(); got != "(no tables found)" {
		t.Errorf("got %q", got)
	}
	empty := &Schema{Engine: "embedded"}
	if got := empty.Context(); got != "(no tables found)" {
		t.Errorf("got %q", got)
	}
}

func TestSchemaTableLookup(t *testing.T) {
	s := &Schema{Tables: []Table{{Name: "Orders"}}}
	if _, ok := s.Table("orders"); !ok {
		t.Error("lookup should be case-insensitive")
	}
	if _, ok := s.Table("missing"); ok {
		t.Error("missing table should not be found")
	}
}

func TestRowSetStatusAndPreview(t *testing.T) {
	rs := &RowSet{
		Columns:  []string{"region", "total"},
		Rows:     [][]string{{"north", "30.5"}, {"south", "7.25"}},
		RowCount: 2,
	}
	if got := rs.Status(); got != "(2 rows)" {
		t.Errorf("got %q, want (2 rows)", got)
	}

	one := &RowSet{RowCount: 1}
	if got := one.Status(); got != "(1 row)" {
		t.Errorf("got %q, want (1 row)", got)
	}

	capped := &RowSet{RowCount: 1000, Truncated: true}
	if got := capped.Status(); got != "(1000 rows, truncated)" {
		t.Errorf("got %q", got)
	}

	preview := rs.Preview(500)
	if !strings.Contains(preview, "region, total") || !strings.Contains(preview, "north, 30.5") {
		t.Errorf("unexpected preview %q", preview)
	}

	short := rs.Preview(10)
	if runes := []rune(short); len(runes) > 11 { // cap plus ellipsis
		t.Errorf("preview too long: %q", short)
	}
}

func TestRowSetTable(t *testing.T) {
	rs := &RowSet{
		Columns:  []string{"region", "total"},
		Rows:     [][]string{{"north", "30.5"}, {"a very long region name that keeps going and going and going on", "7"}},
		RowCount: 2,
	}

	lines := rs.Table()
	if len(lines) != 6 { // header, separator, 2 rows, blank, status
		t.Fatalf("lines = %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "region") || !strings.Contains(lines[0], "total") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "─") || !strings.Contains(lines[1], "┼") {
		t.Errorf("separator = %q", lines[1])
	}
	if !strings.Contains(lines[2], "north") || !strings.Contains(lines[2], "│") {
		t.Errorf("row = %q", lines[2])
	}
	// Long cells are clipped with an ellipsis at the cap.
	if !strings.Contains(lines[3], "…") {
		t.Errorf("long cell not clipped: %q", lines[3])
	}
	if lines[5] != "(2 rows)" {
		t.Errorf("status = %q", lines[5])
	}

	empty := (&RowSet{}).Table()
	if len(empty) != 1 || empty[0] != "(no columns)" {
		t.Errorf("empty table = %q", empty)
	}
}
