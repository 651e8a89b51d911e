package tui

import (
	"time"

	"github.com/DachengChen/sqlsage/engine"
)

// timeRound is the display granularity for elapsed durations.
const timeRound = time.Millisecond

// styledTable renders a result grid with the header and status line
// colored. Data rows stay unstyled so horizontal scrolling in the
// viewport never cuts through an ANSI escape.
func styledTable(rs *engine.RowSet) []string {
	lines := rs.Table()
	if rs == nil || len(rs.Columns) == 0 {
		return []string{StyleDimmed.Render(lines[0])}
	}

	out := make([]string, len(lines))
	copy(out, lines)
	out[0] = StyleSuccess.Render(out[0])
	out[1] = StyleDimmed.Render(out[1])
	out[len(out)-1] = StyleDimmed.Render(out[len(out)-1])
	return out
}
