// Package domain contains the core domain entities and value objects for rowship.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (ClickHouse, HTTP, logging) and
// contains only the buffering data model and its invariants.
//
// # Entities
//
//   - [Batch]: One Append call's worth of rows bound for a single table
//   - [Buffer]: A bounded, mutex-guarded FIFO of pending batches
//   - [ColumnSpec]: Wildcard or explicit ordered column names for an insert
//
// # Design Principles
//
// Rows are opaque to this package: they are never inspected or mutated, only
// carried. The Buffer is the single shared mutable resource in the system;
// every mutation happens under its mutex and no I/O ever runs while the
// mutex is held.
package domain
