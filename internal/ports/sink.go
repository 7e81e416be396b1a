package ports

import (
	"context"

	"github.com/tidebase/rowship/internal/domain"
)

// Sink is the bulk-write capability the buffer's output is delivered to.
//
// Insert must be safely callable with large row counts. Because the engine
// provides at-least-once delivery, the same rows may be submitted more than
// once after a partial flush failure; the sink owns deduplication if it
// needs it.
//
// Implementations classify failures so the flusher can branch on the error
// taxonomy: transport and connectivity problems wrap
// [domain.ErrSinkUnavailable], application-level refusals wrap
// [domain.ErrSinkRejected].
type Sink interface {
	// Insert writes rows to the given table in order. cols carries the
	// column spec the rows conform to; a wildcard spec lets the sink infer
	// the column list.
	Insert(ctx context.Context, table string, rows []domain.Row, cols domain.ColumnSpec) error

	// Ping verifies connectivity with the sink.
	Ping(ctx context.Context) error

	// Close releases the sink's resources.
	Close() error
}
