package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmitAfterReturn is returned when a step handler retains its context and
// attempts to emit after the handler has returned.
var ErrEmitAfterReturn = errors.New("step emitted after handler returned")

// StepExecutionError is an unexpected failure inside a step's own logic. It
// is instance-fatal: the router marks the owning workflow instance Failed.
// Steps wanting recoverable semantics must catch internally and emit a
// designated failure event instead.
type StepExecutionError struct {
	Step     string
	Function string
	Err      error
}

// Error implements the error interface.
func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s/%s: %v", e.Step, e.Function, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *StepExecutionError) Unwrap() error { return e.Err }

// ValidationError reports missing or malformed user input. It is recoverable:
// the intake step converts it into a failure event surfaced externally as a
// request for clarification.
type ValidationError struct {
	Missing []string
	Reason  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("validation failed: missing %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// InfrastructureError reports a failed environment provisioning or execution
// operation. Recoverable at the workflow level via a failure event.
type InfrastructureError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("infrastructure %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *InfrastructureError) Unwrap() error { return e.Err }

// DecisionParseError reports an unparseable selection or termination decision.
// It is never fatal; the strategy falls back to its documented default and
// the error is only logged at warning level.
type DecisionParseError struct {
	Raw string
}

// Error implements the error interface.
func (e *DecisionParseError) Error() string {
	return fmt.Sprintf("unparseable decision %q", e.Raw)
}

// DeliveryError reports a failed external notification. Swallowed by the
// proxy after logging; it never affects instance state.
type DeliveryError struct {
	Topic string
	Err   error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to topic %s: %v", e.Topic, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *DeliveryError) Unwrap() error { return e.Err }
