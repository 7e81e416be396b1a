package rowship

import (
	"time"

	"github.com/tidebase/rowship/internal/app"
)

// State represents the lifecycle state of a Rowship instance.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// IsRunning reports whether the background scheduler is active.
func (s State) IsRunning() bool {
	return s == StateStarting || s == StateRunning
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// FlushSuccessEvent describes a completed flush.
type FlushSuccessEvent struct {
	// Reason is the trigger that caused the flush: "time", "size", "force"
	// or "final".
	Reason string

	// Batches is the number of drained batches delivered.
	Batches int

	// Rows is the total row count across all tables.
	Rows int

	// Duration is the wall time spent in sink inserts.
	Duration time.Duration
}

// FlushErrorEvent describes a failed flush. The drained batches have been
// requeued and will be retried on the next trigger.
type FlushErrorEvent struct {
	Reason  string
	Error   error
	Batches int
}

// EventHandler receives notifications about engine activity.
// Handlers are called synchronously from the scheduler goroutine and should
// return quickly to avoid delaying flushes.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnFlushSuccess(event FlushSuccessEvent)
	OnFlushError(event FlushErrorEvent)
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnFlushSuccess(reason app.FlushReason, batches, rows int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlushSuccess(FlushSuccessEvent{
		Reason:   string(reason),
		Batches:  batches,
		Rows:     rows,
		Duration: duration,
	})
}

func (e *eventEmitterWrapper) OnFlushError(reason app.FlushReason, err error, batches int) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlushError(FlushErrorEvent{
		Reason:  string(reason),
		Error:   err,
		Batches: batches,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
