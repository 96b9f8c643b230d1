// Package core defines the shared vocabulary of the codemesh workflow
// engine: events, conversation messages and transcripts, step contracts,
// the error taxonomy and workflow status values. Higher level packages
// (graph, engine, group, workflow) build on these primitives; core itself
// depends only on the logging abstraction.
package core
