package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/DachengChen/sqlsage/engine"
)

func TestAppendAssignsContiguousSeq(t *testing.T) {
	m := NewMemory()

	for i := 0; i < 4; i++ {
		a, err := m.Append(Attempt{Engine: "embedded", SQL: "SELECT 1"})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if a.Seq != i+1 {
			t.Errorf("got seq %d, want %d", a.Seq, i+1)
		}
	}

	history := m.History()
	if len(history) != 4 {
		t.Fatalf("got %d attempts, want 4", len(history))
	}
	for i, a := range history {
		if a.Seq != i+1 {
			t.Errorf("history[%d].Seq = %d, want %d", i, a.Seq, i+1)
		}
	}
}

func TestHistoryIsACopy(t *testing.T) {
	m := NewMemory()
	m.Append(Attempt{Engine: "embedded", SQL: "SELECT 1"})

	h := m.History()
	h[0].SQL = "tampered"

	if got := m.History()[0].SQL; got != "SELECT 1" {
		t.Errorf("memory mutated through History copy: %q", got)
	}
}

func TestLast(t *testing.T) {
	m := NewMemory()
	if _, ok := m.Last(); ok {
		t.Error("empty memory should have no last attempt")
	}

	m.Append(Attempt{Engine: "embedded", SQL: "a"})
	m.Append(Attempt{Engine: "warehouse", SQL: "b"})

	last, ok := m.Last()
	if !ok || last.Engine != "warehouse" || last.Seq != 2 {
		t.Errorf("got %+v, want warehouse seq 2", last)
	}
}

func TestFailureContext(t *testing.T) {
	m := NewMemory()
	if got := m.FailureContext(3); got != "" {
		t.Errorf("empty memory should yield empty context, got %q", got)
	}

	m.Append(Attempt{Engine: "embedded", SQL: "SELECT * FRM sales", Kind: engine.KindSyntax, Message: `near "FRM"`})
	m.Append(Attempt{Engine: "embedded", SQL: "SELECT ok FROM sales", Success: true, RowCount: 3})
	m.Append(Attempt{Engine: "embedded", SQL: "SELECT ghost FROM sales", Kind: engine.KindResource, Message: "no such column: ghost"})

	ctx := m.FailureContext(3)
	if !strings.Contains(ctx, `Attempt 1 on embedded failed (syntax): near "FRM"`) {
		t.Errorf("missing first failure:\n%s", ctx)
	}
	if !strings.Contains(ctx, "Attempt 3 on embedded failed (resource)") {
		t.Errorf("missing second failure:\n%s", ctx)
	}
	if strings.Contains(ctx, "SELECT ok FROM sales") {
		t.Errorf("successes should not appear:\n%s", ctx)
	}
	if strings.Index(ctx, "Attempt 1") > strings.Index(ctx, "Attempt 3") {
		t.Errorf("failures should render oldest first:\n%s", ctx)
	}

	onlyLast := m.FailureContext(1)
	if strings.Contains(onlyLast, "Attempt 1") {
		t.Errorf("limit 1 should keep only the newest failure:\n%s", onlyLast)
	}
}

type failingSink struct{ err error }

func (f *failingSink) Record(string, Attempt) error { return f.err }

func TestAppendSurfacesSinkFailure(t *testing.T) {
	m := NewMemory()
	cause := errors.New("disk full")
	m.AttachSink(&failingSink{err: cause})

	a, err := m.Append(Attempt{Engine: "embedded", SQL: "SELECT 1"})
	if err == nil {
		t.Fatal("expected a storage error")
	}
	var se *StorageError
	if !errors.As(err, &se) || !errors.Is(err, cause) {
		t.Errorf("got %v, want *StorageError wrapping the cause", err)
	}
	// The in-memory record must survive a sink failure.
	if a.Seq != 1 || m.Len() != 1 {
		t.Errorf("attempt should be retained, got seq %d len %d", a.Seq, m.Len())
	}
}

type captureSink struct {
	sessions []string
	attempts []Attempt
}

func (c *captureSink) Record(sessionID string, a Attempt) error {
	c.sessions = append(c.sessions, sessionID)
	c.attempts = append(c.attempts, a)
	return nil
}

func TestAppendMirrorsToSink(t *testing.T) {
	m := NewMemory()
	sink := &captureSink{}
	m.AttachSink(sink)

	m.Append(Attempt{Engine: "embedded", SQL: "SELECT 1"})
	m.Append(Attempt{Engine: "embedded", SQL: "SELECT 2"})

	if len(sink.attempts) != 2 {
		t.Fatalf("sink saw %d attempts, want 2", len(sink.attempts))
	}
	if sink.attempts[1].Seq != 2 {
		t.Errorf("sink should see assigned seq, got %d", sink.attempts[1].Seq)
	}
	if sink.sessions[0] != m.ID() || sink.sessions[1] != m.ID() {
		t.Errorf("sink should see the session id %q, got %v", m.ID(), sink.sessions)
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	if NewMemory().ID() == NewMemory().ID() {
		t.Error("two sessions should not share an id")
	}
}
