// Package orchestrator wires the loader → parser → registry → model form
// pipeline, providing dependency injection friendly helpers for consumers that
// prefer a single entry point.
package orchestrator
