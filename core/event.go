package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Visibility controls whether an event is a purely internal routing signal
// or may additionally be surfaced to an external observer via the proxy.
type Visibility int

const (
	// VisibilityInternal keeps the event inside the workflow graph.
	VisibilityInternal Visibility = iota
	// VisibilityPublic marks the event as eligible for external delivery.
	VisibilityPublic
)

// String returns the string representation of the visibility.
func (v Visibility) String() string {
	switch v {
	case VisibilityInternal:
		return "internal"
	case VisibilityPublic:
		return "public"
	default:
		return "unknown"
	}
}

// Event is the unit of communication between steps. Identity is the string
// tag (ID); the payload shape is a contract of the producing step, declared
// in the graph definition and validated by the router before any consuming
// step function is invoked. Events are treated as immutable after emission.
type Event struct {
	ID         string     `json:"id"`
	Payload    any        `json:"payload,omitempty"`
	Visibility Visibility `json:"visibility"`
}

// NewEvent constructs an internal event with the given tag and payload.
func NewEvent(id string, payload any) Event {
	return Event{ID: id, Payload: payload, Visibility: VisibilityInternal}
}

// NewPublicEvent constructs an event marked for external delivery.
func NewPublicEvent(id string, payload any) Event {
	return Event{ID: id, Payload: payload, Visibility: VisibilityPublic}
}

// PayloadAs decodes the event payload into the requested type. A mismatch is
// a contract violation by the producing step and is returned as an error so
// the consuming step can surface it as a fatal step failure rather than a
// silent drop.
func PayloadAs[T any](ev Event) (T, error) {
	v, ok := ev.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("event %s: payload is %T, want %T", ev.ID, ev.Payload, zero)
	}
	return v, nil
}

// NewID generates a unique identifier used for messages, workflow instances
// and environment handles.
func NewID() string { return uuid.NewString() }
