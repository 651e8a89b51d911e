package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSeedsWhenMissing(t *testing.T) {
	b, err := Load(filepath.Join(t.TempDir(), "knowledge.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Cases()) == 0 {
		t.Error("fresh base should carry seeded cases")
	}
	if len(b.Patterns("")) == 0 {
		t.Error("fresh base should carry seeded patterns")
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("corrupt file should fail loudly, not be silently replaced")
	}
}

func TestSearchFindsSimilarCases(t *testing.T) {
	b, err := Load(filepath.Join(t.TempDir(), "knowledge.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := b.Search("no such table: orders", 2)
	if len(got) == 0 {
		t.Fatal("expected a match for a missing-table error")
	}
	if !strings.Contains(got[0].Error, "no such table") {
		t.Errorf("got %q as best match", got[0].Error)
	}

	if got := b.Search("completely unrelated xyzzy", 2); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
	if got := b.Search("", 2); got != nil {
		t.Errorf("empty query should return nil, got %v", got)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	b, err := Load(filepath.Join(t.TempDir(), "knowledge.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// "no such" resembles several seeded cases.
	if got := b.Search("no such thing", 1); len(got) > 1 {
		t.Errorf("got %d cases, want at most 1", len(got))
	}
}

func TestRecordSolutionPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.json")
	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := len(b.Cases())

	if err := b.RecordSolution(
		`near "FRM": syntax error`,
		"SELECT * FRM sales",
		"SELECT * FROM sales LIMIT 10"); err != nil {
		t.Fatalf("RecordSolution: %v", err)
	}
	if len(b.Cases()) != before+1 {
		t.Errorf("got %d cases, want %d", len(b.Cases()), before+1)
	}

	// Duplicates are dropped.
	if err := b.RecordSolution(
		`near "FRM": syntax error`,
		"SELECT * FRM sales",
		"SELECT * FROM sales LIMIT 10"); err != nil {
		t.Fatalf("RecordSolution duplicate: %v", err)
	}
	if len(b.Cases()) != before+1 {
		t.Error("duplicate case should not be recorded twice")
	}

	// Survives a reload.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	found := false
	for _, c := range reloaded.Cases() {
		if strings.Contains(c.Error, "FRM") {
			found = true
		}
	}
	if !found {
		t.Error("recorded solution should survive reload")
	}
}

func TestRecordSolutionIgnoresEmpty(t *testing.T) {
	b, err := Load(filepath.Join(t.TempDir(), "knowledge.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := len(b.Cases())
	if err := b.RecordSolution("", "sql", "fix"); err != nil {
		t.Fatal(err)
	}
	if err := b.RecordSolution("err", "sql", "  "); err != nil {
		t.Fatal(err)
	}
	if len(b.Cases()) != before {
		t.Error("empty error or fix should not be recorded")
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"no such table", "no such table", 1, 1},
		{"no such table: orders", "no such table", 0.9, 0.9},
		{"syntax error near limit", "syntax error near LIMIT", 0.5, 1},
		{"xyzzy", "no such table", 0, 0.29},
	}
	for _, tt := range tests {
		got := similarity(strings.ToLower(tt.a), strings.ToLower(tt.b))
		if got < tt.min || got > tt.max {
			t.Errorf("similarity(%q, %q) = %.2f, want in [%.2f, %.2f]", tt.a, tt.b, got, tt.min, tt.max)
		}
	}
}

func TestPatternsByKind(t *testing.T) {
	b, err := Load(filepath.Join(t.TempDir(), "knowledge.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	topN := b.Patterns("top_n")
	if len(topN) != 1 || !strings.Contains(topN[0].Template, "GROUP BY") {
		t.Errorf("got %v", topN)
	}
	if got := b.Patterns("nope"); len(got) != 0 {
		t.Errorf("unknown kind should match nothing, got %v", got)
	}
}
