package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tidebase/rowship/internal/domain"
	"github.com/tidebase/rowship/internal/ports"
)

// FlushReason records which trigger caused a flush.
type FlushReason string

const (
	// FlushReasonTime is a flush caused by the time-since-last-flush trigger.
	FlushReasonTime FlushReason = "time"

	// FlushReasonSize is a flush caused by the pending-batch-count trigger.
	FlushReasonSize FlushReason = "size"

	// FlushReasonForce is a caller-requested out-of-band flush.
	FlushReasonForce FlushReason = "force"

	// FlushReasonFinal is the single best-effort flush on shutdown.
	FlushReasonFinal FlushReason = "final"
)

// FlushEventEmitter is called on flush success or failure.
type FlushEventEmitter interface {
	OnFlushSuccess(reason FlushReason, batches, rows int, duration time.Duration)
	OnFlushError(reason FlushReason, err error, batches int)
}

// Flusher drains the buffer, groups drained batches by table, and invokes
// the sink once per table group.
type Flusher struct {
	buffer  *domain.Buffer
	sink    ports.Sink
	logger  ports.Logger
	emitter FlushEventEmitter

	mu        sync.Mutex
	lastFlush time.Time
}

// NewFlusher creates a flusher over the given buffer and sink.
// emitter may be nil.
func NewFlusher(buffer *domain.Buffer, sink ports.Sink, logger ports.Logger, emitter FlushEventEmitter) *Flusher {
	return &Flusher{
		buffer:  buffer,
		sink:    sink,
		logger:  logger,
		emitter: emitter,
	}
}

// tableGroup concatenates all drained rows bound for one table.
type tableGroup struct {
	table string
	rows  []domain.Row
	cols  domain.ColumnSpec
}

// Flush drains the buffer and bulk-inserts the drained rows, one insert per
// table. An empty buffer is a no-op: no sink call, no last-flush update.
//
// If any table's insert fails, the entire original drained set is requeued,
// including tables whose insert already succeeded in the same pass. The unit
// of retry is the whole drained set, which yields at-least-once delivery
// with a possibility of duplicate inserts into tables that succeeded before
// a later one failed.
//
// The last-flush timestamp is advanced before any I/O so that a slow insert
// does not cause the time trigger to fire again immediately afterwards.
func (f *Flusher) Flush(ctx context.Context, reason FlushReason) error {
	drained := f.buffer.DrainAll()
	if len(drained) == 0 {
		return nil
	}

	f.setLastFlush(time.Now())

	groups := groupByTable(drained)

	start := time.Now()
	totalRows := 0
	for _, g := range groups {
		if err := f.sink.Insert(ctx, g.table, g.rows, g.cols); err != nil {
			f.buffer.Requeue(drained)
			f.logInsertFailure(reason, g.table, len(drained), err)

			if f.emitter != nil {
				f.emitter.OnFlushError(reason, err, len(drained))
			}
			return fmt.Errorf("flush %q into %s: %w", reason, g.table, err)
		}
		totalRows += len(g.rows)
	}

	duration := time.Since(start)
	f.logger.Info("flushed batches",
		ports.String("reason", string(reason)),
		ports.Int("batches", len(drained)),
		ports.Int("rows", totalRows),
		ports.Int("tables", len(groups)),
		ports.Duration("duration", duration),
	)

	if f.emitter != nil {
		f.emitter.OnFlushSuccess(reason, len(drained), totalRows, duration)
	}

	return nil
}

// LastFlush returns the time of the last flush that found data, or the zero
// time if none has happened yet.
func (f *Flusher) LastFlush() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastFlush
}

// AnchorLastFlush sets the last-flush time to now if it is still unset, so
// the time trigger measures from scheduler start rather than from the epoch.
func (f *Flusher) AnchorLastFlush(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastFlush.IsZero() {
		f.lastFlush = now
	}
}

// SinceLastFlush returns the elapsed time since the last flush.
// Returns a very large duration if no flush has been anchored yet.
func (f *Flusher) SinceLastFlush() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastFlush.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return time.Since(f.lastFlush)
}

func (f *Flusher) setLastFlush(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFlush = t
}

// logInsertFailure branches on the sink error taxonomy so operators can tell
// connectivity problems from rejected inserts at a glance.
func (f *Flusher) logInsertFailure(reason FlushReason, table string, requeued int, err error) {
	fields := []ports.Field{
		ports.String("reason", string(reason)),
		ports.String("table", table),
		ports.Int("requeued", requeued),
		ports.Err(err),
	}
	switch {
	case errors.Is(err, domain.ErrSinkUnavailable):
		f.logger.Error("sink unreachable, batches requeued", fields...)
	case errors.Is(err, domain.ErrSinkRejected):
		f.logger.Error("sink rejected insert, batches requeued", fields...)
	default:
		f.logger.Error("insert failed, batches requeued", fields...)
	}
}

// groupByTable groups drained batches by destination table, concatenating
// rows in arrival order within each group. Group order follows the first
// appearance of each table in the drained set. The first batch of a group
// fixes the group's column spec.
func groupByTable(drained []domain.Batch) []tableGroup {
	index := make(map[string]int, len(drained))
	groups := make([]tableGroup, 0, len(drained))

	for _, b := range drained {
		i, seen := index[b.Table]
		if !seen {
			i = len(groups)
			index[b.Table] = i
			groups = append(groups, tableGroup{table: b.Table, cols: b.Columns})
		}
		groups[i].rows = append(groups[i].rows, b.Rows...)
	}

	return groups
}
