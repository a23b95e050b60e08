package texconv

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrConverterNotFound is a pre-flight failure: the configured binary is missing or not executable.
var ErrConverterNotFound = errors.New("converter not found")

// Per-job failure sentinels, matched with errors.Is against a *JobError
var (
	ErrTimeout         = errors.New("timeout")
	ErrProcess         = errors.New("process error")
	ErrOutputMissing   = errors.New("output missing")
	ErrCancelled       = errors.New("cancelled")
	ErrOutputCollision = errors.New("output collision")
)

// FailureKind classifies why a job failed
type FailureKind string

const (
	FailureTimeout         FailureKind = "timeout"
	FailureProcess         FailureKind = "process_error"
	FailureOutputMissing   FailureKind = "output_missing"
	FailureCancelled       FailureKind = "cancelled"
	FailureOutputCollision FailureKind = "output_collision"
)

func (k FailureKind) sentinel() error {
	switch k {
	case FailureTimeout:
		return ErrTimeout
	case FailureProcess:
		return ErrProcess
	case FailureOutputMissing:
		return ErrOutputMissing
	case FailureCancelled:
		return ErrCancelled
	case FailureOutputCollision:
		return ErrOutputCollision
	default:
		return nil
	}
}

// JobError describes one failed conversion with enough context for a log line
type JobError struct {
	Kind     FailureKind `json:"kind" yaml:"kind"`
	Source   string      `json:"source" yaml:"source"`
	ExitCode int         `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	Message  string      `json:"message" yaml:"message"`
	Err      error       `json:"-" yaml:"-"`
}

// NewJobError builds a JobError
func NewJobError(kind FailureKind, source, message string, err error) *JobError {
	return &JobError{Kind: kind, Source: source, Message: message, Err: err}
}

// Error formats the failure as "<file>: <kind>[(exit N)]: <message>"
func (e *JobError) Error() string {
	if e == nil {
		return ""
	}
	kind := string(e.Kind)
	if e.Kind == FailureProcess {
		kind = fmt.Sprintf("%s(exit %d)", e.Kind, e.ExitCode)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", filepath.Base(e.Source), kind)
	}
	return fmt.Sprintf("%s: %s: %s", filepath.Base(e.Source), kind, e.Message)
}

// Is matches the sentinel of the failure kind
func (e *JobError) Is(target error) bool {
	if e == nil {
		return false
	}
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Unwrap exposes the underlying cause
func (e *JobError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
