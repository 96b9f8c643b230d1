package graph

import (
	"fmt"

	"github.com/hupe1980/codemesh/core"
)

// Builder accumulates steps, event declarations and edges and produces an
// immutable, validated Definition. It is not safe for concurrent use; build
// the template once during setup and share the Definition.
type Builder struct {
	steps  map[string]*StepDefinition
	order  []string
	edges  []Edge
	inputs map[string]Target
	checks map[string]PayloadCheck
	errs   []error
}

// NewBuilder returns an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		steps:  map[string]*StepDefinition{},
		inputs: map[string]Target{},
		checks: map[string]PayloadCheck{},
	}
}

// AddStep registers a step with its entry functions. Registering the same
// name twice is a build error.
func (b *Builder) AddStep(name string, functions map[string]core.Handler) *Builder {
	if _, exists := b.steps[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("step %s registered twice", name))
		return b
	}
	if len(functions) == 0 {
		b.errs = append(b.errs, fmt.Errorf("step %s: no entry functions", name))
		return b
	}
	fns := make(map[string]core.Handler, len(functions))
	for fn, h := range functions {
		fns[fn] = h
	}
	b.steps[name] = &StepDefinition{Name: name, Functions: fns}
	b.order = append(b.order, name)
	return b
}

// DeclareEvent registers an event id with its payload schema. Every event
// produced at run time must have been declared here; the router validates
// payloads against the check before delivery.
func (b *Builder) DeclareEvent(id string, check PayloadCheck) *Builder {
	b.checks[id] = check
	return b
}

// AddInput declares a graph entry point: an externally injected event id
// routed to the given step function.
func (b *Builder) AddInput(eventID, step, function string) *Builder {
	b.inputs[eventID] = Target{Step: step, Function: function}
	return b
}

// OnEvent starts an edge declaration for the given producing step and event.
func (b *Builder) OnEvent(step, eventID string) EdgeBuilder {
	return EdgeBuilder{b: b, fromStep: step, fromEvent: eventID}
}

// OnFunctionResult starts a wildcard completion edge declaration: the edge
// fires whenever any entry function of the step returns successfully.
func (b *Builder) OnFunctionResult(step string) EdgeBuilder {
	return EdgeBuilder{b: b, fromStep: step, fromEvent: FunctionResult}
}

// EdgeBuilder declares the consequences of one (step, event) source. Calls
// may be chained to declare fan-out; edges fire in declaration order.
type EdgeBuilder struct {
	b         *Builder
	fromStep  string
	fromEvent string
}

// SendEventTo appends an internal routing edge to the target step function.
func (eb EdgeBuilder) SendEventTo(step, function string) EdgeBuilder {
	eb.b.edges = append(eb.b.edges, Edge{
		FromStep:   eb.fromStep,
		FromEvent:  eb.fromEvent,
		ToStep:     step,
		ToFunction: function,
	})
	return eb
}

// EmitExternal appends an edge delivering the event to the proxy under the
// given topic. The topic table is fixed at build time.
func (eb EdgeBuilder) EmitExternal(topic string) EdgeBuilder {
	eb.b.edges = append(eb.b.edges, Edge{
		FromStep:  eb.fromStep,
		FromEvent: eb.fromEvent,
		External:  true,
		Topic:     topic,
	})
	return eb
}

// Stop appends a terminal edge: the current run of the instance ends and the
// status is marked stopped-at-terminal-edge. The instance itself survives.
func (eb EdgeBuilder) Stop() EdgeBuilder {
	eb.b.edges = append(eb.b.edges, Edge{
		FromStep:  eb.fromStep,
		FromEvent: eb.fromEvent,
		Terminal:  true,
	})
	return eb
}

// Complete appends a success terminal edge: the run ends with the instance
// marked completed.
func (eb EdgeBuilder) Complete() EdgeBuilder {
	eb.b.edges = append(eb.b.edges, Edge{
		FromStep:   eb.fromStep,
		FromEvent:  eb.fromEvent,
		Terminal:   true,
		Completion: true,
	})
	return eb
}

// Build validates the accumulated topology and returns the immutable
// Definition. All referenced steps, functions and event declarations must
// exist; validation happens here, never at run time.
func (b *Builder) Build() (*Definition, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	for i, e := range b.edges {
		if _, ok := b.steps[e.FromStep]; !ok {
			return nil, fmt.Errorf("edge %d: unknown source step %s", i, e.FromStep)
		}
		if e.FromEvent != FunctionResult {
			if _, ok := b.checks[e.FromEvent]; !ok {
				return nil, fmt.Errorf("edge %d: undeclared event %s", i, e.FromEvent)
			}
		}
		if e.External {
			if e.Topic == "" {
				return nil, fmt.Errorf("edge %d: external edge without topic", i)
			}
			continue
		}
		if e.Terminal {
			continue
		}
		target, ok := b.steps[e.ToStep]
		if !ok {
			return nil, fmt.Errorf("edge %d: unknown target step %s", i, e.ToStep)
		}
		if _, ok := target.Function(e.ToFunction); !ok {
			return nil, fmt.Errorf("edge %d: step %s has no function %s", i, e.ToStep, e.ToFunction)
		}
	}

	for ev, t := range b.inputs {
		if _, ok := b.checks[ev]; !ok {
			return nil, fmt.Errorf("input %s: undeclared event", ev)
		}
		step, ok := b.steps[t.Step]
		if !ok {
			return nil, fmt.Errorf("input %s: unknown step %s", ev, t.Step)
		}
		if _, ok := step.Function(t.Function); !ok {
			return nil, fmt.Errorf("input %s: step %s has no function %s", ev, t.Step, t.Function)
		}
	}

	d := &Definition{
		steps:  make(map[string]*StepDefinition, len(b.steps)),
		edges:  make([]Edge, len(b.edges)),
		index:  map[edgeKey][]int{},
		inputs: make(map[string]Target, len(b.inputs)),
		checks: make(map[string]PayloadCheck, len(b.checks)),
	}
	for name, sd := range b.steps {
		d.steps[name] = sd
	}
	copy(d.edges, b.edges)
	for i, e := range d.edges {
		k := edgeKey{e.FromStep, e.FromEvent}
		d.index[k] = append(d.index[k], i)
	}
	for ev, t := range b.inputs {
		d.inputs[ev] = t
	}
	for ev, c := range b.checks {
		d.checks[ev] = c
	}
	return d, nil
}
