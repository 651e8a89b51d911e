// Package executor drives the execute/correct/fallback loop that turns
// a generated statement into rows, or into an honest account of why no
// engine could produce them.
//
// Design decisions:
//   - Correction and fallback counters are tracked explicitly, never
//     derived from the attempt log. The log is an audit trail; deriving
//     control flow from it would couple the loop to record shape.
//   - Fallback always restarts from the ORIGINAL statement with a fresh
//     correction budget. Corrections are engine-specific; carrying a
//     half-fixed dialect onto the next engine compounds errors.
//   - Running out of engines is a Result, not a Go error. Errors are
//     reserved for the loop's own collaborators failing (corrector,
//     attempt store, cancellation).
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DachengChen/sqlsage/engine"
	"github.com/DachengChen/sqlsage/session"
)

// Corrector rewrites a failed statement. Implemented by ai.Corrector;
// tests substitute fakes.
type Corrector interface {
	Correct(ctx context.Context, req Correction) (string, error)
}

// Correction describes one failed attempt for the corrector.
type Correction struct {
	SQL     string
	Kind    engine.ErrorKind
	Message string
	Engine  string

	// Attempt is the 1-based correction attempt on this engine.
	Attempt int
}

// Options tunes the loop. Zero MaxCorrections disables correction;
// zero AttemptTimeout means no per-attempt deadline.
type Options struct {
	MaxCorrections int
	EnableFallback bool
	AttemptTimeout time.Duration
}

// Status is the terminal state of one run.
type Status string

const (
	// Succeeded: some engine returned rows.
	Succeeded Status = "succeeded"

	// Exhausted: every permitted combination of correction and fallback
	// failed. The attempt history says what was tried and why.
	Exhausted Status = "exhausted"
)

// Result is the outcome of one run, including the full session history.
type Result struct {
	Status   Status
	Rows     *engine.RowSet
	Attempts []session.Attempt

	// SQL is the statement that finally succeeded.
	SQL string

	// FinalKind and FinalMessage describe the last failure when the run
	// is Exhausted.
	FinalKind    engine.ErrorKind
	FinalMessage string

	// Corrections and Fallbacks count what this run spent.
	Corrections int
	Fallbacks   int
}

// Executor runs statements through a priority-ordered engine chain.
type Executor struct {
	engines   []engine.Engine
	corrector Corrector
	memory    *session.Memory
	opts      Options
}

// New assembles an executor. corrector may be nil, in which case syntax
// failures go straight to fallback like any other failure.
func New(engines []engine.Engine, corrector Corrector, memory *session.Memory, opts Options) (*Executor, error) {
	if len(engines) == 0 {
		return nil, errors.New("executor: no engines")
	}
	if memory == nil {
		return nil, errors.New("executor: nil session memory")
	}
	if opts.MaxCorrections < 0 {
		opts.MaxCorrections = 0
	}
	return &Executor{engines: engines, corrector: corrector, memory: memory, opts: opts}, nil
}

type action int

const (
	actionCorrect action = iota
	actionFallback
	actionStop
)

// decide picks the next move after a failure. Only syntax failures are
// worth a correction; resource, timeout, and unavailable failures skip
// straight to the next engine.
func (e *Executor) decide(kind engine.ErrorKind, corrections, engineIdx int) action {
	if kind == engine.KindSyntax && e.corrector != nil && corrections < e.opts.MaxCorrections {
		return actionCorrect
	}
	if e.opts.EnableFallback && engineIdx+1 < len(e.engines) {
		return actionFallback
	}
	return actionStop
}

// Run executes sql until an engine succeeds or every option is spent.
// Attempt count is bounded by engines*(MaxCorrections+1). Cancellation
// is honored between attempts; a *session.StorageError aborts the run.
func (e *Executor) Run(ctx context.Context, sql string) (*Result, error) {
	original := sql
	engineIdx := 0
	corrections := 0
	res := &Result{}

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run stopped before attempt: %w", err)
		}

		eng := e.engines[engineIdx]
		rows, execErr, att := e.attempt(ctx, eng, sql)
		if _, err := e.memory.Append(att); err != nil {
			return nil, err
		}

		if execErr == nil {
			res.Status = Succeeded
			res.Rows = rows
			res.SQL = sql
			res.Attempts = e.memory.History()
			return res, nil
		}

		switch e.decide(execErr.Kind, corrections, engineIdx) {
		case actionCorrect:
			corrected, err := e.corrector.Correct(ctx, Correction{
				SQL:     sql,
				Kind:    execErr.Kind,
				Message: execErr.Message,
				Engine:  eng.Name(),
				Attempt: corrections + 1,
			})
			if err != nil {
				return nil, fmt.Errorf("correct statement for %s: %w", eng.Name(), err)
			}
			if strings.TrimSpace(corrected) == "" {
				return nil, fmt.Errorf("correct statement for %s: corrector returned empty sql", eng.Name())
			}
			sql = corrected
			corrections++
			res.Corrections++

		case actionFallback:
			engineIdx++
			corrections = 0
			sql = original
			res.Fallbacks++

		case actionStop:
			res.Status = Exhausted
			res.FinalKind = execErr.Kind
			res.FinalMessage = execErr.Message
			res.Attempts = e.memory.History()
			return res, nil
		}
	}
}

// attempt executes once under the per-attempt deadline and builds the
// record before any decision is made about what happens next.
func (e *Executor) attempt(ctx context.Context, eng engine.Engine, sql string) (*engine.RowSet, *engine.Error, session.Attempt) {
	runCtx := ctx
	if e.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.opts.AttemptTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := eng.Execute(runCtx, sql)
	elapsed := time.Since(start)

	att := session.Attempt{
		Engine:    eng.Name(),
		SQL:       sql,
		StartedAt: start,
		Elapsed:   elapsed,
	}
	if err != nil {
		ee := engine.Normalize(err, eng.Name())
		att.Kind = ee.Kind
		att.Message = ee.Message
		return nil, ee, att
	}

	att.Success = true
	att.RowCount = rows.RowCount
	att.Preview = rows.Preview(200)
	return rows, nil, att
}
