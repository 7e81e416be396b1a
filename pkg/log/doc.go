// Package log provides the structured logging abstraction used across rowship.
//
// The [Logger] interface decouples the engine from any concrete logging
// library. The default adapter wraps zerolog; [NewNoopLogger] returns a
// logger that discards everything, which is the default for embedded use so
// that a host application's output is never polluted unless it opts in.
//
// Fields are constructed with the typed helpers ([String], [Int], [Err],
// [Duration], ...) and rendered by the adapter.
package log
