// Package engine defines the query-engine capability interface and its
// concrete adapters.
//
// Every adapter normalizes backend-specific failures into a fixed four-way
// error taxonomy so the executor can decide correct/fallback/stop without
// ever inspecting backend error types directly.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is a machine-readable execution failure category.
type ErrorKind string

const (
	// KindSyntax marks malformed or unsupported SQL. Correctable: a
	// regenerated statement may succeed on the same engine.
	KindSyntax ErrorKind = "syntax"

	// KindResource marks a missing table/column/function or a permission
	// failure. Retrying the same engine with new SQL rarely helps; the
	// executor prefers fallback.
	KindResource ErrorKind = "resource"

	// KindTimeout marks an attempt that exceeded its deadline.
	KindTimeout ErrorKind = "timeout"

	// KindUnavailable marks an engine that cannot be reached at all.
	// Fallback applies immediately, no correction budget is spent.
	KindUnavailable ErrorKind = "unavailable"
)

// Error is a normalized execution failure from one engine.
type Error struct {
	Kind    ErrorKind
	Engine  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Engine, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Engine, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a normalized failure without an underlying cause.
func NewError(kind ErrorKind, engineName, msg string) *Error {
	return &Error{Kind: kind, Engine: engineName, Message: msg}
}

// WrapError builds a normalized failure around an underlying cause.
func WrapError(kind ErrorKind, engineName, msg string, err error) *Error {
	return &Error{Kind: kind, Engine: engineName, Message: msg, Err: err}
}

// Normalize guarantees err is an *Error. Adapters already return *Error;
// this catches deadline/cancellation surfacing outside adapter code and
// anything an adapter missed (treated as a resource failure, the least
// destructive default for the decision policy).
func Normalize(err error, engineName string) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(KindTimeout, engineName, "query exceeded attempt deadline", err)
	}
	if errors.Is(err, context.Canceled) {
		return WrapError(KindTimeout, engineName, "query cancelled", err)
	}
	return WrapError(KindResource, engineName, err.Error(), err)
}
