// Package workorder implements the core maintenance work order engine:
// the lifecycle state machine with its transition preconditions, checklist
// completion gating, recurrence scheduling for preventive orders, and
// field-level history recording. The package is persistence-agnostic; all
// side effects are returned to the caller as values to be committed in a
// single storage transaction.
package workorder
