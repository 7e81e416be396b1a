package domain

import "errors"

// Domain errors represent error conditions in the rowship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("rowship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("rowship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("rowship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("rowship: invalid configuration")

	// ErrSinkUnavailable marks insert failures caused by connectivity or
	// transport problems. The batch is retried on the next flush trigger.
	ErrSinkUnavailable = errors.New("rowship: sink unavailable")

	// ErrSinkRejected marks inserts the sink received but refused with an
	// application-level error. The batch is retried on the next flush trigger.
	ErrSinkRejected = errors.New("rowship: sink rejected insert")
)
