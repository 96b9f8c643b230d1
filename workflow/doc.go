// Package workflow provides the built-in coding assistant workflow: a
// three-step graph that validates an incoming requirement, provisions an
// isolated execution environment, and runs a multi-agent group chat that
// plans and implements the change. The package exposes the graph template
// through NewDefinition together with the event and topic names it wires.
package workflow
