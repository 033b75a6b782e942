package library

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrNotFound            = errors.New("not found")
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrAllSourcesExhausted = errors.New("no source reachable")
	ErrTimeout             = errors.New("timed out")
	ErrInvariantViolation  = errors.New("invariant violation")
)

// NotFoundError reports a missing entry, composite or sub-record.
type NotFoundError struct {
	Kind string // "entry", "composite", "sub-record"
	ID   int
	Err  error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %d not found", e.Kind, e.ID)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// SourceUnavailableError reports that one provider-backed fetch failed.
// The resolver recovers from it by trying another sub-record.
type SourceUnavailableError struct {
	Source   string
	RecordID int
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	msg := fmt.Sprintf("source %q unavailable for record %d", e.Source, e.RecordID)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

func (e *SourceUnavailableError) Is(target error) bool { return target == ErrSourceUnavailable }

// AllSourcesExhaustedError ends one resolution pass in which every
// sub-record of a composite failed.
type AllSourcesExhaustedError struct {
	CompositeID int
	Tried       []int
	Err         error // joined per-candidate errors
}

func (e *AllSourcesExhaustedError) Error() string {
	ids := make([]string, len(e.Tried))
	for i, id := range e.Tried {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("composite %d: no source reachable (tried %s)", e.CompositeID, strings.Join(ids, ","))
}

func (e *AllSourcesExhaustedError) Unwrap() error { return e.Err }

func (e *AllSourcesExhaustedError) Is(target error) bool { return target == ErrAllSourcesExhausted }

// TimeoutError reports a backend call that did not finish in time.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
	}
	return e.Op + " timed out"
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// InvariantViolationError rejects an operation that would break a model
// invariant, such as removing the last sub-record of a composite.
type InvariantViolationError struct {
	Reason string
}

func (e *InvariantViolationError) Error() string { return "invariant violation: " + e.Reason }

func (e *InvariantViolationError) Is(target error) bool { return target == ErrInvariantViolation }
