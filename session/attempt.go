// Package session holds the append-only execution memory of one
// analysis session.
//
// Every execution attempt is recorded, success or failure, in order.
// The record is the product as much as the result rows are: when every
// engine has been exhausted, the attempt history is what the caller
// shows instead of a bare error.
package session

import (
	"fmt"
	"time"

	"github.com/DachengChen/sqlsage/engine"
)

// Attempt is one execution of one statement on one engine.
type Attempt struct {
	// Seq is assigned by Memory.Append, contiguous from 1.
	Seq int

	Engine  string
	SQL     string
	Success bool

	// Kind and Message are set on failure.
	Kind    engine.ErrorKind
	Message string

	// RowCount and Preview are set on success.
	RowCount int
	Preview  string

	StartedAt time.Time
	Elapsed   time.Duration
}

// Summary renders a one-line description for tables and logs.
func (a Attempt) Summary() string {
	if a.Success {
		return fmt.Sprintf("#%d %s ok: %d rows (%s)", a.Seq, a.Engine, a.RowCount, formatElapsed(a.Elapsed))
	}
	return fmt.Sprintf("#%d %s %s: %s (%s)", a.Seq, a.Engine, a.Kind, a.Message, formatElapsed(a.Elapsed))
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}
