package app

import (
	"context"
	"fmt"
	"time"

	"github.com/tidebase/rowship/internal/domain"
	"github.com/tidebase/rowship/internal/ports"
)

// finalFlushTimeout bounds the single best-effort flush on shutdown.
const finalFlushTimeout = 10 * time.Second

// SchedulerConfig contains the trigger thresholds for the tick loop.
type SchedulerConfig struct {
	// BatchSize is the size trigger: a flush fires when at least this many
	// batches are pending.
	BatchSize int

	// FlushInterval is the time trigger: a flush fires when this much time
	// has passed since the last flush and the buffer is non-empty.
	FlushInterval time.Duration

	// TickInterval is the scheduler's wake granularity.
	TickInterval time.Duration
}

// flushRequest is an out-of-band flush handed to the running scheduler.
type flushRequest struct {
	reason FlushReason
	done   chan error
}

// Scheduler runs the background tick loop. Each tick it checks the time
// trigger and the size trigger independently; both may fire in the same
// tick, in which case the second flush simply finds a smaller or empty
// buffer.
type Scheduler struct {
	cfg     SchedulerConfig
	buffer  *domain.Buffer
	flusher *Flusher
	logger  ports.Logger

	requests chan flushRequest
}

// NewScheduler creates a scheduler over the given buffer and flusher.
func NewScheduler(cfg SchedulerConfig, buffer *domain.Buffer, flusher *Flusher, logger ports.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		buffer:   buffer,
		flusher:  flusher,
		logger:   logger,
		requests: make(chan flushRequest, 16),
	}
}

// Run executes the tick loop until the context is canceled. On cancellation
// it performs exactly one final best-effort flush before returning.
//
// Transient tick errors are logged and followed by a backoff pause; the loop
// never exits on them. Insert failures are not tick errors: the flusher
// already requeues and logs them, and the data is retried on the next
// trigger.
func (s *Scheduler) Run(ctx context.Context) error {
	s.flusher.AnchorLastFlush(time.Now())

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	back := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)

	for {
		select {
		case <-ctx.Done():
			s.finalFlush()
			return ctx.Err()

		case req := <-s.requests:
			err := s.flusher.Flush(ctx, req.reason)
			if req.done != nil {
				req.done <- err
			}

		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				s.logger.Error("scheduler tick failed",
					ports.Err(err),
					ports.Duration("backoff", back.Current()),
				)
				back.Pause(ctx)
				continue
			}
			back.Reset()
		}
	}
}

// RequestFlush hands an out-of-band flush to the running scheduler and
// returns a handle that yields the flush outcome. The handle channel is
// buffered, so callers are free to discard it.
func (s *Scheduler) RequestFlush(reason FlushReason) <-chan error {
	done := make(chan error, 1)
	select {
	case s.requests <- flushRequest{reason: reason, done: done}:
	default:
		// Request queue is saturated; the pending flushes will pick the
		// same data up anyway.
		done <- nil
	}
	return done
}

// tick evaluates both flush triggers once. A panic inside a tick is
// recovered and returned as a transient error so the loop keeps running.
func (s *Scheduler) tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rowship: scheduler panic: %v", r)
		}
	}()

	// Time trigger: interval elapsed and data pending.
	if s.flusher.SinceLastFlush() >= s.cfg.FlushInterval && s.buffer.Len() > 0 {
		if ferr := s.flusher.Flush(ctx, FlushReasonTime); ferr != nil {
			// Requeued and logged by the flusher. Skip the size trigger so
			// a failing sink gets at most one attempt per tick.
			return nil
		}
	}

	// Size trigger, evaluated independently.
	if s.buffer.Len() >= s.cfg.BatchSize {
		if ferr := s.flusher.Flush(ctx, FlushReasonSize); ferr != nil {
			return nil
		}
	}

	return nil
}

// finalFlush performs the single shutdown flush attempt on its own context,
// since the loop context is already canceled at this point.
func (s *Scheduler) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()

	if err := s.flusher.Flush(ctx, FlushReasonFinal); err != nil {
		s.logger.Warn("final flush incomplete, pending data lost on exit", ports.Err(err))
	}
}
