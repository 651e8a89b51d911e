// messages.go defines Bubble Tea messages used for async communication.
//
// All engine operations and AI requests send results back to the
// TUI via these message types, ensuring the UI never blocks.
package tui

import (
	"time"

	"github.com/DachengChen/sqlsage/analysis"
	"github.com/DachengChen/sqlsage/engine"
	"github.com/DachengChen/sqlsage/session"
)

// AnalysisMsg is sent when a full question analysis completes.
type AnalysisMsg struct {
	Report *analysis.Report
	Err    error
}

// SQLResultMsg is sent when a direct SQL execution completes.
type SQLResultMsg struct {
	Engine string
	Rows   *engine.RowSet
	Err    error
}

// SchemaMsg is sent when a schema snapshot fetch completes.
type SchemaMsg struct {
	Engine string
	Schema *engine.Schema
	Err    error
}

// ProbeMsg is sent when an engine connectivity probe completes.
type ProbeMsg struct {
	Engine  string
	Tables  int
	Elapsed time.Duration
	Err     error
}

// HistoryMsg carries stored attempts from the history store.
type HistoryMsg struct {
	Attempts []session.StoredAttempt
	Err      error
}

// LogTailMsg carries the newest lines of a log file.
type LogTailMsg struct {
	Source string // "app" or "ai"
	Lines  []string
	Err    error
}

// StatusMsg is a transient status message for the status bar.
type StatusMsg string
