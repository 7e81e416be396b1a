package rowship

import (
	"github.com/tidebase/rowship/internal/domain"
	"github.com/tidebase/rowship/internal/ports"
	"github.com/tidebase/rowship/pkg/log"
)

// Row is an ordered sequence of values conforming to a table's column spec.
// Rows are opaque to rowship: never inspected, never mutated.
type Row = domain.Row

// ColumnSpec describes which columns an insert targets.
type ColumnSpec = domain.ColumnSpec

// Wildcard returns a column spec that lets the sink infer the column list.
func Wildcard() ColumnSpec { return domain.Wildcard() }

// Columns returns an explicit ordered column spec.
func Columns(names ...string) ColumnSpec { return domain.Columns(names...) }

// Sink is the bulk-write capability rowship delivers to. The built-in
// ClickHouse sink is used unless one is injected with WithSink.
type Sink = ports.Sink

// Logger is the structured logging interface, from pkg/log.
type Logger = log.Logger

// LogField is a structured logging field, from pkg/log.
type LogField = log.Field

// Sentinel errors, re-exported for errors.Is checks.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrSinkUnavailable = domain.ErrSinkUnavailable
	ErrSinkRejected    = domain.ErrSinkRejected
)

// Option configures optional behavior of a Rowship instance.
type Option func(*options)

// options holds the optional configuration for a Rowship instance.
type options struct {
	sink         ports.Sink
	logger       ports.Logger
	eventHandler EventHandler
	plugins      []Plugin
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithSink injects a custom sink. When set, the ClickHouse connection
// settings in Config are ignored and the caller owns the sink's lifetime.
func WithSink(sink Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for rowship events.
// Events are called synchronously from the scheduler goroutine.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the instance starts.
// Plugins are initialized in registration order and shut down in reverse
// order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
