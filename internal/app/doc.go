// Package app contains the application layer of the buffering engine: the
// flush executor, the background flush scheduler, and the lifecycle state
// machine that ties them together.
//
// The engine's job is to decouple many small, frequent Append calls from the
// sink's preferred mode of operation (large, infrequent bulk inserts). The
// [Scheduler] wakes on a fixed tick and triggers a flush when either the
// size threshold or the time-since-last-flush threshold is crossed; the
// [Flusher] drains the buffer, groups rows by table, and performs one insert
// per table. On any insert failure the entire drained set goes back into the
// buffer, giving at-least-once delivery with unbounded retries.
package app
