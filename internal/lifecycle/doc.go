// Package lifecycle is the meal database's lifecycle manager.
//
// A Manager owns exactly one store handle at a time and runs every
// operation against it as a strict pipeline:
//
//	open -> probe -> (create+seed) -> query -> close
//
// Each step completes, successfully or not, before the next begins. The
// handle is released on every exit path, including errors and panics in
// later steps, so the medium's open and close counts always match per run.
//
// # Error policy
//
// A probe that reports a missing table is recovered locally by migrating.
// Every other failure (open, corrupt table, schema, transaction) ends the
// run: the progress log is reset to a single "Error: ..." entry, the store
// is closed and the manager settles in Errored. Nothing is retried; the
// caller may call OpenAndRun again.
//
// # Progress
//
// Every step appends to a progress.Log. Watchers see the full emitted
// stream; Snapshot shows the current view, which starts over at the
// beginning of each run and after each error.
package lifecycle
