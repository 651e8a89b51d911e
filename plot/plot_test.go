package plot

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/DachengChen/sqlsage/engine"
)

func resultSet(cols []string, rows [][]string) *engine.RowSet {
	return &engine.RowSet{Columns: cols, Rows: rows, RowCount: len(rows)}
}

func TestSuggestKind(t *testing.T) {
	many := make([][]string, 150)
	for i := range many {
		many[i] = []string{"x", "1"}
	}

	tests := []struct {
		name string
		rows *engine.RowSet
		want Kind
	}{
		{"nil result", nil, KindLine},
		{"empty result", resultSet([]string{"a"}, nil), KindLine},
		{"over a hundred rows", resultSet([]string{"a", "b"}, many), KindHeatmap},
		{"two columns", resultSet([]string{"a", "b"}, [][]string{{"x", "1"}}), KindScatter},
		{"three columns", resultSet([]string{"a", "b", "c"}, [][]string{{"x", "1", "2"}}), KindLine},
		{"one column", resultSet([]string{"a"}, [][]string{{"1"}}), KindBar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestKind(tt.rows); got != tt.want {
				t.Errorf("SuggestKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildLabelsAndSeries(t *testing.T) {
	rows := resultSet(
		[]string{"region", "revenue", "orders"},
		[][]string{
			{"north", "1250.5", "42"},
			{"south", "980", "31"},
			{"west", "NULL", "7"},
		},
	)

	spec, err := Build("revenue by region", rows, KindBar)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if spec.XLabel != "region" {
		t.Errorf("XLabel = %q", spec.XLabel)
	}
	if len(spec.Series) != 2 {
		t.Fatalf("series = %d, want 2", len(spec.Series))
	}

	rev := spec.Series[0]
	if rev.Name != "revenue" {
		t.Errorf("series name = %q", rev.Name)
	}
	// The NULL cell is skipped, not zeroed.
	if len(rev.Points) != 2 {
		t.Fatalf("revenue points = %d, want 2", len(rev.Points))
	}
	if rev.Points[0].Label != "north" || rev.Points[0].Value != 1250.5 {
		t.Errorf("point = %+v", rev.Points[0])
	}
	if len(spec.Series[1].Points) != 3 {
		t.Errorf("orders points = %d, want 3", len(spec.Series[1].Points))
	}
}

func TestBuildSingleColumn(t *testing.T) {
	rows := resultSet([]string{"n"}, [][]string{{"5"}, {"9"}, {"2"}})

	spec, err := Build("counts", rows, "")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if spec.Kind != KindBar {
		t.Errorf("kind = %q, want suggested bar", spec.Kind)
	}
	pts := spec.Series[0].Points
	if len(pts) != 3 || pts[0].Label != "1" || pts[2].Label != "3" {
		t.Errorf("points = %+v, want index labels", pts)
	}
}

func TestBuildNumericFirstColumnOnly(t *testing.T) {
	rows := resultSet([]string{"total", "note"}, [][]string{{"10", "a"}, {"20", "b"}})

	spec, err := Build("totals", rows, KindBar)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(spec.Series) != 1 || spec.Series[0].Name != "total" {
		t.Fatalf("series = %+v", spec.Series)
	}
	if spec.Series[0].Points[1].Value != 20 {
		t.Errorf("value = %v", spec.Series[0].Points[1].Value)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		rows *engine.RowSet
	}{
		{"nil result", nil},
		{"empty result", resultSet([]string{"a"}, nil)},
		{"no numeric column", resultSet([]string{"a", "b"}, [][]string{{"x", "y"}})},
		{"single text column", resultSet([]string{"a"}, [][]string{{"x"}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build("t", tt.rows, KindBar); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRenderBars(t *testing.T) {
	rows := resultSet([]string{"region", "revenue"},
		[][]string{{"north", "100"}, {"south", "50"}, {"west", "0"}})
	spec, err := Build("revenue", rows, KindBar)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	out := spec.Render(60)
	if !strings.Contains(out, "revenue [bar]") {
		t.Errorf("missing header:\n%s", out)
	}
	for _, want := range []string{"north", "south", "west", "100", "50"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var north, south string
	for _, l := range lines {
		if strings.HasPrefix(l, "north") {
			north = l
		}
		if strings.HasPrefix(l, "south") {
			south = l
		}
	}
	if strings.Count(north, "█") <= strings.Count(south, "█") {
		t.Errorf("bar lengths not proportional:\n%s", out)
	}
}

func TestRenderSparkline(t *testing.T) {
	rows := resultSet([]string{"day", "hits"},
		[][]string{{"mon", "1"}, {"tue", "5"}, {"wed", "9"}})
	spec, err := Build("traffic", rows, KindLine)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	out := spec.Render(60)
	if !strings.Contains(out, "min 1, max 9") {
		t.Errorf("missing range:\n%s", out)
	}
	if !strings.ContainsRune(out, '█') || !strings.ContainsRune(out, '▁') {
		t.Errorf("sparkline missing extremes:\n%s", out)
	}
}

func TestRenderHeatmapCapsRows(t *testing.T) {
	var data [][]string
	for i := 0; i < 60; i++ {
		data = append(data, []string{"row", "1", "2"})
	}
	spec, err := Build("big", resultSet([]string{"k", "a", "b"}, data), KindHeatmap)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	out := spec.Render(80)
	if !strings.Contains(out, "(+30 more rows)") {
		t.Errorf("missing row cap note:\n%s", out)
	}
	if !strings.Contains(out, "c1: a") || !strings.Contains(out, "c2: b") {
		t.Errorf("missing legend:\n%s", out)
	}
}

func TestSaveWritesArtifact(t *testing.T) {
	rows := resultSet([]string{"n"}, [][]string{{"3"}})
	spec, err := Build("probe", rows, KindBar)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	dir := t.TempDir()
	path, err := spec.Save(dir)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !strings.HasPrefix(path, dir) || !strings.HasSuffix(path, ".json") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var loaded Spec
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if loaded.Kind != KindBar || loaded.Title != "probe" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestSaveRequiresDir(t *testing.T) {
	spec := &Spec{Kind: KindBar, Title: "x"}
	if _, err := spec.Save(""); err == nil {
		t.Error("expected error for empty dir")
	}
}
