// Package graph provides the static workflow topology: step definitions,
// typed event declarations and the edge index the engine routes over.
//
// A Definition is built once per workflow template via the Builder, validated
// at build time and then shared read-only across all workflow instances.
package graph

import (
	"fmt"

	"github.com/hupe1980/codemesh/core"
)

// FunctionResult is the wildcard event tag for completion edges. An edge
// declared from this tag fires whenever the step's entry function returns
// successfully, independent of explicit emission.
const FunctionResult = "__function_result__"

// StepDefinition is an immutable named unit of workflow logic with one or
// more callable entry functions.
type StepDefinition struct {
	Name      string
	Functions map[string]core.Handler
}

// Function resolves an entry function by name.
func (sd *StepDefinition) Function(name string) (core.Handler, bool) {
	h, ok := sd.Functions[name]
	return h, ok
}

// Edge is a static binding from a producing step/event to a consuming
// step/function, to external delivery, or to a terminal stop.
type Edge struct {
	FromStep   string
	FromEvent  string // event id or the FunctionResult wildcard
	ToStep     string
	ToFunction string
	External   bool
	Topic      string // external topic, set when External
	Terminal   bool
	Completion bool // terminal success marker, implies Terminal
}

// Target is a resolved (step, function) pair for a graph entry point.
type Target struct {
	Step     string
	Function string
}

// PayloadCheck validates an event payload against the declared schema for
// its event id.
type PayloadCheck func(any) error

// PayloadOf returns a PayloadCheck accepting exactly payloads of type T.
func PayloadOf[T any]() PayloadCheck {
	return func(p any) error {
		if _, ok := p.(T); !ok {
			var zero T
			return fmt.Errorf("payload is %T, want %T", p, zero)
		}
		return nil
	}
}

// NoPayload returns a PayloadCheck accepting only nil payloads.
func NoPayload() PayloadCheck {
	return func(p any) error {
		if p != nil {
			return fmt.Errorf("payload is %T, want none", p)
		}
		return nil
	}
}

type edgeKey struct{ step, event string }

// Definition is the closed, immutable set of step definitions, edges,
// declared input events and external topics of one workflow template.
type Definition struct {
	steps   map[string]*StepDefinition
	edges   []Edge
	index   map[edgeKey][]int
	inputs  map[string]Target
	checks  map[string]PayloadCheck
}

// Step resolves a step definition by name.
func (d *Definition) Step(name string) (*StepDefinition, bool) {
	s, ok := d.steps[name]
	return s, ok
}

// Entry resolves the target of a declared graph input event.
func (d *Definition) Entry(eventID string) (Target, bool) {
	t, ok := d.inputs[eventID]
	return t, ok
}

// EdgesFrom returns the edges matching the producing step and event id in
// declaration order. Declaration order is the ordering contract for fan-out;
// matching edges never race.
func (d *Definition) EdgesFrom(step, eventID string) []Edge {
	idxs := d.index[edgeKey{step, eventID}]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]Edge, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, d.edges[i])
	}
	return out
}

// ValidatePayload checks an event payload against the schema declared for
// its id. Undeclared event ids are rejected.
func (d *Definition) ValidatePayload(ev core.Event) error {
	check, ok := d.checks[ev.ID]
	if !ok {
		return fmt.Errorf("event %s not declared in graph", ev.ID)
	}
	if err := check(ev.Payload); err != nil {
		return fmt.Errorf("event %s: %w", ev.ID, err)
	}
	return nil
}

// Edges returns a copy of all edges in declaration order.
func (d *Definition) Edges() []Edge {
	out := make([]Edge, len(d.edges))
	copy(out, d.edges)
	return out
}
