// Package plot turns query results into chart specifications: a kind
// heuristic, a builder that splits a result set into labels and numeric
// series, a terminal renderer, and a JSON artifact writer.
package plot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/DachengChen/sqlsage/engine"
)

// Kind identifies a chart shape.
type Kind string

const (
	KindBar     Kind = "bar"
	KindLine    Kind = "line"
	KindScatter Kind = "scatter"
	KindHeatmap Kind = "heatmap"
)

// SuggestKind picks a chart kind from the shape of a result set.
func SuggestKind(rows *engine.RowSet) Kind {
	if rows == nil || len(rows.Rows) == 0 {
		return KindLine
	}
	if len(rows.Rows) > 100 {
		return KindHeatmap
	}
	switch {
	case len(rows.Columns) == 2:
		return KindScatter
	case len(rows.Columns) > 2:
		return KindLine
	default:
		return KindBar
	}
}

// Point is one labeled value in a series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is one named sequence of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Spec is a complete chart description, renderable and persistable.
type Spec struct {
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	XLabel    string    `json:"x_label,omitempty"`
	Series    []Series  `json:"series"`
	CreatedAt time.Time `json:"created_at"`
}

// Build constructs a chart spec from a result set. The first column
// becomes the labels and every numeric column after it becomes a
// series; a lone numeric column gets row-index labels. Empty kind means
// SuggestKind decides.
func Build(title string, rows *engine.RowSet, kind Kind) (*Spec, error) {
	if rows == nil || len(rows.Rows) == 0 {
		return nil, fmt.Errorf("build chart: result set is empty")
	}
	if kind == "" {
		kind = SuggestKind(rows)
	}

	spec := &Spec{Kind: kind, Title: title, CreatedAt: time.Now()}

	if len(rows.Columns) == 1 {
		if !numericColumn(rows, 0) {
			return nil, fmt.Errorf("build chart: column %q is not numeric", rows.Columns[0])
		}
		spec.Series = []Series{columnSeries(rows, 0, indexLabels(len(rows.Rows)))}
		return spec, nil
	}

	labels := make([]string, len(rows.Rows))
	for i, row := range rows.Rows {
		labels[i] = row[0]
	}
	spec.XLabel = rows.Columns[0]

	for c := 1; c < len(rows.Columns); c++ {
		if numericColumn(rows, c) {
			spec.Series = append(spec.Series, columnSeries(rows, c, labels))
		}
	}
	if len(spec.Series) == 0 {
		// Only the leading column holds numbers; chart it by row index.
		if numericColumn(rows, 0) {
			spec.XLabel = ""
			spec.Series = []Series{columnSeries(rows, 0, indexLabels(len(rows.Rows)))}
			return spec, nil
		}
		return nil, fmt.Errorf("build chart: no numeric column in result")
	}
	return spec, nil
}

// Save writes the spec as an indented JSON artifact under dir and
// returns its path.
func (s *Spec) Save(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("save chart: no output directory configured")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("save chart: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("save chart: %w", err)
	}

	name := fmt.Sprintf("chart_%s_%d.json", s.Kind, time.Now().UnixMilli())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("save chart: %w", err)
	}
	return path, nil
}

// numericColumn reports whether column c parses as numbers: every
// present value must parse and at least one value must be present.
// "NULL" and empty cells count as missing, not as parse failures.
func numericColumn(rows *engine.RowSet, c int) bool {
	seen := false
	for _, row := range rows.Rows {
		if c >= len(row) {
			return false
		}
		v := row[c]
		if v == "" || v == "NULL" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// columnSeries extracts column c as a series, skipping missing cells.
func columnSeries(rows *engine.RowSet, c int, labels []string) Series {
	s := Series{Name: rows.Columns[c]}
	for i, row := range rows.Rows {
		if c >= len(row) || row[c] == "" || row[c] == "NULL" {
			continue
		}
		v, err := strconv.ParseFloat(row[c], 64)
		if err != nil {
			continue
		}
		s.Points = append(s.Points, Point{Label: labels[i], Value: v})
	}
	return s
}

func indexLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i + 1)
	}
	return out
}
