package plot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	defaultWidth  = 80
	maxLabelWidth = 16
	maxHeatRows   = 30
	heatCellWidth = 3
)

var (
	shades = []rune{'░', '▒', '▓', '█'}
	sparks = []rune("▁▂▃▄▅▆▇█")
)

// Render draws the chart as plain text fitted to a width-column
// terminal: horizontal bars for bar and scatter, sparklines for line,
// a shaded grid for heatmap.
func (s *Spec) Render(width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", s.Title, s.Kind)

	if len(s.Series) == 0 {
		b.WriteString("(no numeric data)\n")
		return b.String()
	}

	switch s.Kind {
	case KindHeatmap:
		s.renderHeatmap(&b, width)
	case KindLine:
		s.renderSparklines(&b, width)
	default:
		s.renderBars(&b, width)
	}
	return b.String()
}

func (s *Spec) renderBars(b *strings.Builder, width int) {
	for si, series := range s.Series {
		if len(s.Series) > 1 {
			if si > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(b, "%s:\n", series.Name)
		}

		labelW, valueW := 0, 0
		maxAbs := 0.0
		for _, p := range series.Points {
			if l := len([]rune(p.Label)); l > labelW {
				labelW = l
			}
			if l := len(formatNum(p.Value)); l > valueW {
				valueW = l
			}
			if a := math.Abs(p.Value); a > maxAbs {
				maxAbs = a
			}
		}
		if labelW > maxLabelWidth {
			labelW = maxLabelWidth
		}
		barW := width - labelW - valueW - 4
		if barW < 8 {
			barW = 8
		}

		for _, p := range series.Points {
			n := 0
			if maxAbs > 0 {
				n = int(math.Round(math.Abs(p.Value) / maxAbs * float64(barW)))
			}
			if n == 0 && p.Value != 0 {
				n = 1
			}
			fmt.Fprintf(b, "%-*s  %s %s\n",
				labelW, clip(p.Label, labelW), strings.Repeat("█", n), formatNum(p.Value))
		}
	}
}

func (s *Spec) renderSparklines(b *strings.Builder, width int) {
	nameW := 0
	for _, series := range s.Series {
		if l := len([]rune(series.Name)); l > nameW {
			nameW = l
		}
	}
	if nameW > maxLabelWidth {
		nameW = maxLabelWidth
	}

	for _, series := range s.Series {
		pts := samplePoints(series.Points, width-nameW-2)
		lo, hi := pointRange(pts)

		var line strings.Builder
		for _, p := range pts {
			line.WriteRune(spark(p.Value, lo, hi))
		}
		fmt.Fprintf(b, "%-*s  %s\n", nameW, clip(series.Name, nameW), line.String())
		fmt.Fprintf(b, "%-*s  min %s, max %s\n", nameW, "", formatNum(lo), formatNum(hi))
	}
}

func (s *Spec) renderHeatmap(b *strings.Builder, width int) {
	lo, hi := globalRange(s.Series)
	first := s.Series[0]

	labelW := 0
	for _, p := range first.Points {
		if l := len([]rune(p.Label)); l > labelW {
			labelW = l
		}
	}
	if labelW > maxLabelWidth {
		labelW = maxLabelWidth
	}

	cols := s.Series
	if maxCols := (width - labelW - 1) / (heatCellWidth + 1); maxCols >= 1 && len(cols) > maxCols {
		cols = cols[:maxCols]
	}

	fmt.Fprintf(b, "%-*s ", labelW, "")
	for i := range cols {
		fmt.Fprintf(b, "%-*s ", heatCellWidth, fmt.Sprintf("c%d", i+1))
	}
	b.WriteString("\n")

	shown := len(first.Points)
	if shown > maxHeatRows {
		shown = maxHeatRows
	}
	for i := 0; i < shown; i++ {
		fmt.Fprintf(b, "%-*s ", labelW, clip(first.Points[i].Label, labelW))
		for _, series := range cols {
			if i >= len(series.Points) {
				b.WriteString(strings.Repeat(" ", heatCellWidth) + " ")
				continue
			}
			cell := string(shade(series.Points[i].Value, lo, hi))
			b.WriteString(strings.Repeat(cell, heatCellWidth) + " ")
		}
		b.WriteString("\n")
	}
	if n := len(first.Points) - shown; n > 0 {
		fmt.Fprintf(b, "(+%d more rows)\n", n)
	}

	for i, series := range cols {
		fmt.Fprintf(b, "c%d: %s\n", i+1, series.Name)
	}
	fmt.Fprintf(b, "scale: %s = %s, %s = %s\n",
		string(shades[0]), formatNum(lo), string(shades[len(shades)-1]), formatNum(hi))
}

// formatNum keeps integers bare and everything else at two decimals.
func formatNum(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func clip(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 1 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}

// samplePoints thins long series evenly so the line fits the terminal.
func samplePoints(pts []Point, n int) []Point {
	if n < 1 {
		n = 1
	}
	if len(pts) <= n {
		return pts
	}
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		out[i] = pts[i*len(pts)/n]
	}
	return out
}

func pointRange(pts []Point) (float64, float64) {
	if len(pts) == 0 {
		return 0, 0
	}
	lo, hi := pts[0].Value, pts[0].Value
	for _, p := range pts[1:] {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}
	return lo, hi
}

func globalRange(series []Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Points {
			if p.Value < lo {
				lo = p.Value
			}
			if p.Value > hi {
				hi = p.Value
			}
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func spark(v, lo, hi float64) rune {
	if hi <= lo {
		return sparks[len(sparks)/2]
	}
	i := int((v - lo) / (hi - lo) * float64(len(sparks)-1))
	if i < 0 {
		i = 0
	}
	if i >= len(sparks) {
		i = len(sparks) - 1
	}
	return sparks[i]
}

func shade(v, lo, hi float64) rune {
	if hi <= lo {
		return shades[len(shades)-1]
	}
	i := int((v - lo) / (hi - lo) * float64(len(shades)))
	if i >= len(shades) {
		i = len(shades) - 1
	}
	if i < 0 {
		i = 0
	}
	return shades[i]
}
