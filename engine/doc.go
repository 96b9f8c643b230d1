// Package engine executes workflow instances over a shared graph
// definition. Each instance behaves as a single-threaded actor: its events
// are processed strictly in enqueue order by one worker at a time, so
// per-step state never needs locking. Across instances, concurrency is
// unrestricted. The Engine front door is Submit, which enqueues work on an
// unbounded ingestion queue and returns immediately; a bounded worker pool
// drains the queue, resolving or creating the owning instance through the
// registry's atomic get-or-create.
package engine
