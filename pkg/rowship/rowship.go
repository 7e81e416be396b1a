package rowship

import (
	"context"
	"errors"
	"sync"
	"time"

	chsink "github.com/tidebase/rowship/internal/adapters/clickhouse"
	"github.com/tidebase/rowship/internal/app"
	"github.com/tidebase/rowship/internal/domain"
	"github.com/tidebase/rowship/internal/ports"
)

// forceFlushTimeout bounds flushes that run inline on a caller's goroutine
// when no scheduler is active.
const forceFlushTimeout = 10 * time.Second

// Rowship is a buffered ClickHouse writer that can be embedded in other
// applications. Use New() to create an instance; Append() enqueues rows and
// lazily starts the background scheduler, or call Start() explicitly.
type Rowship struct {
	config    Config
	lifecycle *app.Lifecycle
	buffer    *domain.Buffer
	flusher   *app.Flusher
	scheduler *app.Scheduler
	sink      ports.Sink
	ownsSink  bool
	logger    ports.Logger
	plugins   []Plugin
	emitter   eventEmitterWrapper

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a new Rowship instance with the given configuration.
// Unless a sink is injected with WithSink, New dials ClickHouse and verifies
// connectivity before returning. The instance is created in StateStopped;
// the scheduler starts on the first Append or an explicit Start.
func New(cfg Config, opts ...Option) (*Rowship, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Rowship{
		config:  cfg,
		logger:  o.logger,
		plugins: o.plugins,
		emitter: eventEmitterWrapper{handler: o.eventHandler},
	}

	r.lifecycle = app.NewLifecycle(r.logger, &r.emitter)

	// Capacity is counted in batches, one per Append call.
	r.buffer = domain.NewBuffer(2 * cfg.BatchSize)

	sink := o.sink
	if sink == nil {
		dialCtx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
		defer cancel()

		s, err := chsink.Open(dialCtx, chsink.Config{
			Addr:         cfg.Addr,
			Database:     cfg.Database,
			Username:     cfg.Username,
			Password:     cfg.Password,
			Compress:     cfg.Compress,
			DialTimeout:  cfg.DialTimeout,
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
		}, r.logger)
		if err != nil {
			return nil, err
		}
		sink = s
		r.ownsSink = true
	}
	r.sink = sink

	r.flusher = app.NewFlusher(r.buffer, sink, r.logger, &r.emitter)
	r.scheduler = app.NewScheduler(app.SchedulerConfig{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		TickInterval:  cfg.TickInterval,
	}, r.buffer, r.flusher, r.logger)

	return r, nil
}

// Append enqueues rows for the given table. It is fire-and-forget: the call
// never blocks on I/O and the caller is not notified of the eventual insert
// outcome. Empty row sets are dropped as a no-op.
//
// If the background scheduler is not running it is started as a side effect,
// so an explicit Start() call is allowed but not required.
func (r *Rowship) Append(table string, rows []Row, cols ColumnSpec) {
	if len(rows) == 0 {
		r.logger.Debug("empty append ignored", ports.String("table", table))
		return
	}

	r.buffer.Append(domain.NewBatch(table, rows, cols))

	if !r.lifecycle.Running() {
		if err := r.Start(context.Background()); err != nil && !errors.Is(err, domain.ErrAlreadyRunning) {
			r.logger.Error("lazy scheduler start failed", ports.Err(err))
		}
	}
}

// Insert bypasses the buffer and writes rows to the sink immediately.
func (r *Rowship) Insert(ctx context.Context, table string, rows []Row, cols ColumnSpec) error {
	return r.sink.Insert(ctx, table, rows, cols)
}

// Start begins background flushing. Returns immediately after launching the
// scheduler goroutine. Returns ErrAlreadyRunning if the scheduler is active.
// The provided context bounds the scheduler's lifetime.
func (r *Rowship) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}

	if err := r.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		Config: r.config,
		Logger: r.logger,
	}
	for _, p := range r.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			r.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			_ = r.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		r.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	r.lifecycle.AddWorker()
	go func() {
		defer r.lifecycle.WorkerDone()

		if err := r.lifecycle.TransitionTo(app.StateRunning, "scheduler starting"); err != nil {
			r.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		err := r.scheduler.Run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("scheduler error", ports.Err(err))
			_ = r.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

// Stop gracefully shuts down background flushing. The scheduler performs one
// final best-effort flush before exiting; if anything is still pending after
// the scheduler is gone (it crashed, or the shutdown timed out), the flush
// runs inline on the caller's goroutine instead, so shutdown never silently
// skips the final drain even though that may block the caller.
//
// Returns ErrNotRunning if the scheduler is not active, and
// ErrShutdownTimeout if workers failed to finish in time.
func (r *Rowship) Stop() error {
	r.mu.Lock()

	if !r.lifecycle.CanStop() {
		r.mu.Unlock()
		return domain.ErrNotRunning
	}

	if err := r.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		r.mu.Unlock()
		return err
	}

	if r.cancel != nil {
		r.cancel()
	}

	r.mu.Unlock()

	err := r.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	// Shutdown plugins in reverse order.
	shutdownCtx := context.Background()
	for i := len(r.plugins) - 1; i >= 0; i-- {
		p := r.plugins[i]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			r.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(shutdownErr))
		} else {
			r.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}

	// Fallback path: the scheduler goroutine normally runs the final flush
	// itself, but if it never got there the data would be lost on exit.
	if r.buffer.Len() > 0 {
		flushCtx, cancel := context.WithTimeout(context.Background(), forceFlushTimeout)
		if flushErr := r.flusher.Flush(flushCtx, app.FlushReasonFinal); flushErr != nil {
			r.logger.Warn("final flush incomplete", ports.Err(flushErr))
		}
		cancel()
	}

	if err != nil {
		_ = r.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = r.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// Close stops background flushing if it is running and releases the sink if
// this instance owns it. The instance cannot be reused afterwards.
func (r *Rowship) Close() error {
	if err := r.Stop(); err != nil && !errors.Is(err, domain.ErrNotRunning) {
		r.logger.Error("stop during close", ports.Err(err))
	}

	if r.ownsSink {
		if err := r.sink.Close(); err != nil {
			return err
		}
		r.logger.Info("sink closed")
	}
	return nil
}

// ForceFlush requests an out-of-band flush regardless of the triggers. When
// the scheduler is running the flush executes in the background and the
// returned handle yields its outcome; otherwise the flush runs synchronously
// on the caller's goroutine before ForceFlush returns. The handle channel is
// buffered, so fire-and-forget callers may discard it.
func (r *Rowship) ForceFlush() <-chan error {
	if r.lifecycle.Running() {
		return r.scheduler.RequestFlush(app.FlushReasonForce)
	}

	done := make(chan error, 1)
	ctx, cancel := context.WithTimeout(context.Background(), forceFlushTimeout)
	defer cancel()
	done <- r.flusher.Flush(ctx, app.FlushReasonForce)
	return done
}

// ForceFlushSync runs a flush on the caller's goroutine and reports its
// outcome, regardless of whether the scheduler is running.
func (r *Rowship) ForceFlushSync(ctx context.Context) error {
	return r.flusher.Flush(ctx, app.FlushReasonForce)
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (r *Rowship) Status() State {
	return convertState(r.lifecycle.State())
}

// Pending returns the number of batches currently held in the buffer.
func (r *Rowship) Pending() int {
	return r.buffer.Len()
}

// Evicted returns the total number of batches dropped by the buffer's
// overflow policy since the instance was created.
func (r *Rowship) Evicted() uint64 {
	return r.buffer.Evicted()
}
