package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Sink receives a copy of every appended attempt, typically the SQLite
// history store. Sinks observe; Memory stays the source of truth for
// the running session.
type Sink interface {
	Record(sessionID string, a Attempt) error
}

// StorageError reports a sink that rejected an attempt record. The
// attempt is still held in memory; the error exists so persistence
// failures surface loudly instead of dropping history.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "attempt store: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// Memory is the append-only attempt log of one session. One instance is
// shared across all plan steps of an analysis, so sequence numbers tell
// the whole story in one timeline.
type Memory struct {
	id string

	mu       sync.RWMutex
	attempts []Attempt
	sink     Sink
}

// NewMemory starts an empty session log with a fresh session id.
func NewMemory() *Memory {
	return &Memory{id: uuid.NewString()}
}

// ID returns the session identifier attempts are recorded under.
func (m *Memory) ID() string { return m.id }

// AttachSink mirrors all future appends into s.
func (m *Memory) AttachSink(s Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = s
}

// Append assigns the next sequence number and records the attempt.
// Existing records are never modified. A failing sink yields a
// *StorageError; the attempt itself is retained either way.
func (m *Memory) Append(a Attempt) (Attempt, error) {
	m.mu.Lock()
	a.Seq = len(m.attempts) + 1
	m.attempts = append(m.attempts, a)
	sink := m.sink
	m.mu.Unlock()

	if sink != nil {
		if err := sink.Record(m.id, a); err != nil {
			return a, &StorageError{Err: err}
		}
	}
	return a, nil
}

// History returns a copy of all attempts in append order.
func (m *Memory) History() []Attempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, len(m.attempts))
	copy(out, m.attempts)
	return out
}

// Last returns the most recent attempt, if any.
func (m *Memory) Last() (Attempt, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.attempts) == 0 {
		return Attempt{}, false
	}
	return m.attempts[len(m.attempts)-1], true
}

// Len reports how many attempts have been recorded.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.attempts)
}

// FailureContext renders the last n failures as a prompt block for the
// corrector, oldest first:
//
//	Attempt 2 on embedded failed (syntax): near "FRM"
//	  SQL: SELECT * FRM sales
//
// Returns "" when nothing has failed yet.
func (m *Memory) FailureContext(n int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var failures []Attempt
	for i := len(m.attempts) - 1; i >= 0 && len(failures) < n; i-- {
		if !m.attempts[i].Success {
			failures = append(failures, m.attempts[i])
		}
	}
	if len(failures) == 0 {
		return ""
	}

	var b strings.Builder
	for i := len(failures) - 1; i >= 0; i-- {
		f := failures[i]
		fmt.Fprintf(&b, "Attempt %d on %s failed (%s): %s\n", f.Seq, f.Engine, f.Kind, f.Message)
		fmt.Fprintf(&b, "  SQL: %s\n", f.SQL)
	}
	return b.String()
}
