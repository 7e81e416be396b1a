package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tidebase/rowship/internal/domain"
	"github.com/tidebase/rowship/pkg/log"
)

type insertCall struct {
	table string
	rows  []domain.Row
	cols  domain.ColumnSpec
}

// fakeSink records inserts and fails or panics on demand.
type fakeSink struct {
	mu       sync.Mutex
	inserts  []insertCall
	failWith map[string]error
	panicOn  string
	onInsert func()
}

func newFakeSink() *fakeSink {
	return &fakeSink{failWith: make(map[string]error)}
}

func (s *fakeSink) Insert(_ context.Context, table string, rows []domain.Row, cols domain.ColumnSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.onInsert != nil {
		s.onInsert()
	}
	if table == s.panicOn {
		panic("sink blew up")
	}
	if err, ok := s.failWith[table]; ok {
		return err
	}
	s.inserts = append(s.inserts, insertCall{table: table, rows: rows, cols: cols})
	return nil
}

func (s *fakeSink) Ping(context.Context) error { return nil }
func (s *fakeSink) Close() error               { return nil }

func (s *fakeSink) calls() []insertCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]insertCall, len(s.inserts))
	copy(out, s.inserts)
	return out
}

func (s *fakeSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserts)
}

func (s *fakeSink) clearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = make(map[string]error)
}

func appendBatch(buf *domain.Buffer, table string, vals ...int) {
	rows := make([]domain.Row, len(vals))
	for i, v := range vals {
		rows[i] = domain.Row{v}
	}
	buf.Append(domain.NewBatch(table, rows, domain.Wildcard()))
}

func rowValues(rows []domain.Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r[0].(int)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFlushEmptyBufferIsIdempotent(t *testing.T) {
	buf := domain.NewBuffer(8)
	sink := newFakeSink()
	f := NewFlusher(buf, sink, log.NewNoopLogger(), nil)

	if err := f.Flush(context.Background(), FlushReasonForce); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if got := sink.callCount(); got != 0 {
		t.Errorf("sink calls = %d, want 0", got)
	}
	if !f.LastFlush().IsZero() {
		t.Error("empty flush must not update the last-flush time")
	}
}

func TestFlushGroupsByTableInArrivalOrder(t *testing.T) {
	buf := domain.NewBuffer(8)
	sink := newFakeSink()
	f := NewFlusher(buf, sink, log.NewNoopLogger(), nil)

	appendBatch(buf, "events", 1, 2)
	appendBatch(buf, "metrics", 10)
	appendBatch(buf, "events", 3)
	appendBatch(buf, "metrics", 11, 12)

	if err := f.Flush(context.Background(), FlushReasonForce); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	calls := sink.calls()
	if len(calls) != 2 {
		t.Fatalf("sink calls = %d, want 2 (one per table)", len(calls))
	}

	// Group order follows first appearance; rows concatenate across batches
	// in arrival order.
	if calls[0].table != "events" || !equalInts(rowValues(calls[0].rows), []int{1, 2, 3}) {
		t.Errorf("first insert = %s %v, want events [1 2 3]", calls[0].table, rowValues(calls[0].rows))
	}
	if calls[1].table != "metrics" || !equalInts(rowValues(calls[1].rows), []int{10, 11, 12}) {
		t.Errorf("second insert = %s %v, want metrics [10 11 12]", calls[1].table, rowValues(calls[1].rows))
	}

	if buf.Len() != 0 {
		t.Errorf("buffer still holds %d batches after successful flush", buf.Len())
	}
}

func TestFlushColumnSpecTakenFromFirstBatchOfGroup(t *testing.T) {
	buf := domain.NewBuffer(8)
	sink := newFakeSink()
	f := NewFlusher(buf, sink, log.NewNoopLogger(), nil)

	buf.Append(domain.NewBatch("events", []domain.Row{{1}}, domain.Columns("id", "ts")))
	buf.Append(domain.NewBatch("events", []domain.Row{{2}}, domain.Wildcard()))

	if err := f.Flush(context.Background(), FlushReasonForce); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	calls := sink.calls()
	if len(calls) != 1 {
		t.Fatalf("sink calls = %d, want 1", len(calls))
	}
	names := calls[0].cols.Names()
	if len(names) != 2 || names[0] != "id" || names[1] != "ts" {
		t.Errorf("column spec = %v, want [id ts]", names)
	}
}

func TestFlushFailureRequeuesEntireDrainedSet(t *testing.T) {
	buf := domain.NewBuffer(8)
	sink := newFakeSink()
	f := NewFlusher(buf, sink, log.NewNoopLogger(), nil)

	appendBatch(buf, "events", 1)
	appendBatch(buf, "metrics", 10)
	appendBatch(buf, "events", 2)

	// events succeeds first, then metrics fails: the whole drained set must
	// come back, including the events batches that were already inserted.
	sink.failWith["metrics"] = fmt.Errorf("insert: %w", domain.ErrSinkUnavailable)

	err := f.Flush(context.Background(), FlushReasonForce)
	if err == nil {
		t.Fatal("Flush() error = nil, want sink failure")
	}
	if !errors.Is(err, domain.ErrSinkUnavailable) {
		t.Errorf("error = %v, want ErrSinkUnavailable in chain", err)
	}

	if got := buf.Len(); got != 3 {
		t.Fatalf("buffer holds %d batches after failed flush, want 3", got)
	}

	// A subsequent successful flush delivers every originally appended row.
	sink.clearFailures()
	if err := f.Flush(context.Background(), FlushReasonForce); err != nil {
		t.Fatalf("retry Flush() error = %v", err)
	}

	var events, metrics []int
	for _, c := range sink.calls() {
		switch c.table {
		case "events":
			events = append(events, rowValues(c.rows)...)
		case "metrics":
			metrics = append(metrics, rowValues(c.rows)...)
		}
	}
	// events was inserted twice (before the metrics failure and on retry):
	// at-least-once, duplicates possible.
	if !equalInts(events, []int{1, 2, 1, 2}) {
		t.Errorf("events rows = %v, want [1 2 1 2]", events)
	}
	if !equalInts(metrics, []int{10}) {
		t.Errorf("metrics rows = %v, want [10]", metrics)
	}
}

func TestFlushSetsLastFlushBeforeInsert(t *testing.T) {
	buf := domain.NewBuffer(8)
	sink := newFakeSink()
	f := NewFlusher(buf, sink, log.NewNoopLogger(), nil)

	var lastFlushDuringInsert time.Time
	sink.onInsert = func() {
		lastFlushDuringInsert = f.LastFlush()
	}

	appendBatch(buf, "events", 1)

	before := time.Now()
	if err := f.Flush(context.Background(), FlushReasonTime); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if lastFlushDuringInsert.IsZero() || lastFlushDuringInsert.Before(before) {
		t.Errorf("last-flush during insert = %v, want anchored before I/O (>= %v)", lastFlushDuringInsert, before)
	}
}

func TestFlushRetryLandsAfterNewerArrivals(t *testing.T) {
	buf := domain.NewBuffer(8)
	sink := newFakeSink()
	f := NewFlusher(buf, sink, log.NewNoopLogger(), nil)

	appendBatch(buf, "events", 1)
	sink.failWith["events"] = domain.ErrSinkRejected

	// A new batch arrives while the failing insert is in flight, i.e. after
	// the drain but before the requeue.
	sink.onInsert = func() {
		appendBatch(buf, "events", 2)
	}

	if err := f.Flush(context.Background(), FlushReasonForce); err == nil {
		t.Fatal("Flush() error = nil, want failure")
	}

	// The retried batch must not regain priority over the newer arrival.
	drained := buf.DrainAll()
	if got := len(drained); got != 2 {
		t.Fatalf("buffer holds %d batches, want 2", got)
	}
	if v := drained[0].Rows[0][0]; v != 2 {
		t.Errorf("head batch row = %v, want the newer arrival 2", v)
	}
	if v := drained[1].Rows[0][0]; v != 1 {
		t.Errorf("tail batch row = %v, want the retried batch 1", v)
	}
}

type recordingEmitter struct {
	mu        sync.Mutex
	successes []FlushReason
	failures  []FlushReason
}

func (e *recordingEmitter) OnFlushSuccess(reason FlushReason, batches, rows int, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.successes = append(e.successes, reason)
}

func (e *recordingEmitter) OnFlushError(reason FlushReason, err error, batches int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, reason)
}

func (e *recordingEmitter) counts() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.successes), len(e.failures)
}

func TestFlushEmitsEvents(t *testing.T) {
	buf := domain.NewBuffer(8)
	sink := newFakeSink()
	emitter := &recordingEmitter{}
	f := NewFlusher(buf, sink, log.NewNoopLogger(), emitter)

	appendBatch(buf, "events", 1)
	if err := f.Flush(context.Background(), FlushReasonSize); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	sink.failWith["events"] = domain.ErrSinkUnavailable
	appendBatch(buf, "events", 2)
	if err := f.Flush(context.Background(), FlushReasonTime); err == nil {
		t.Fatal("Flush() error = nil, want failure")
	}

	succ, fail := emitter.counts()
	if succ != 1 || fail != 1 {
		t.Errorf("emitter saw %d successes, %d failures; want 1 and 1", succ, fail)
	}
	if emitter.successes[0] != FlushReasonSize {
		t.Errorf("success reason = %s, want size", emitter.successes[0])
	}
	if emitter.failures[0] != FlushReasonTime {
		t.Errorf("failure reason = %s, want time", emitter.failures[0])
	}
}
