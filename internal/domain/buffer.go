package domain

import "sync"

// Buffer is a bounded FIFO collection of pending batches.
//
// Capacity is counted in batches (one per Append call), not rows. When the
// buffer is full, the oldest batch is evicted to admit the newest. That is a
// bounded-memory policy, not an error: callers are never notified and the
// eviction is only visible through the Evicted counter.
//
// All methods are safe for concurrent use. None of them perform I/O while
// holding the mutex, which keeps producers from ever stalling behind a slow
// insert.
type Buffer struct {
	mu      sync.Mutex
	batches []Batch
	cap     int
	evicted uint64
}

// NewBuffer creates a buffer bounded at capacity batches.
// A capacity of zero or less is treated as one.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		batches: make([]Batch, 0, capacity),
		cap:     capacity,
	}
}

// Append adds a batch at the tail. Batches with no rows are dropped as a
// no-op. If the buffer is full, the oldest batch is evicted first.
func (b *Buffer) Append(batch Batch) {
	if batch.Empty() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.push(batch)
}

// DrainAll atomically empties the buffer and returns its prior contents in
// arrival order. This is the only bulk read path, so no caller ever observes
// a partially drained buffer.
func (b *Buffer) DrainAll() []Batch {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.batches) == 0 {
		return nil
	}

	drained := b.batches
	b.batches = make([]Batch, 0, b.cap)
	return drained
}

// Requeue re-appends a previously drained set of batches, preserving their
// mutual order, at the tail. Retried batches therefore do not regain
// priority over batches appended in the interim. The eviction policy applies
// exactly as it does for Append.
func (b *Buffer) Requeue(batches []Batch) {
	if len(batches) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, batch := range batches {
		if batch.Empty() {
			continue
		}
		b.push(batch)
	}
}

// Len returns the current count of pending batches.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.batches)
}

// Evicted returns the total number of batches dropped by the overflow policy.
func (b *Buffer) Evicted() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.evicted
}

// Cap returns the buffer's fixed capacity in batches.
func (b *Buffer) Cap() int {
	return b.cap
}

// push appends one batch, evicting the oldest if at capacity.
// Callers must hold b.mu.
func (b *Buffer) push(batch Batch) {
	if len(b.batches) >= b.cap {
		n := copy(b.batches, b.batches[1:])
		b.batches = b.batches[:n]
		b.evicted++
	}
	b.batches = append(b.batches, batch)
}
