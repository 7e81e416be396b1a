package domain

// Row is an ordered sequence of values conforming to a table's column spec.
// Rows are opaque to the buffer: never inspected, never mutated.
type Row []any

// ColumnSpec describes which columns an insert targets.
// The zero value is the wildcard spec: the sink infers the columns.
type ColumnSpec struct {
	names []string
}

// Wildcard returns a spec that lets the sink infer the column list.
func Wildcard() ColumnSpec {
	return ColumnSpec{}
}

// Columns returns an explicit ordered column spec.
func Columns(names ...string) ColumnSpec {
	return ColumnSpec{names: names}
}

// IsWildcard reports whether the sink should infer the column list.
func (c ColumnSpec) IsWildcard() bool {
	return len(c.names) == 0
}

// Names returns the explicit column names, or nil for the wildcard spec.
func (c ColumnSpec) Names() []string {
	return c.names
}

// Batch is one Append call's worth of rows bound for a single table.
// A Batch is immutable once created. It is owned exclusively by the Buffer
// until drained; ownership transfers to the flusher on drain, and back to
// the Buffer if the subsequent insert fails.
type Batch struct {
	// Table is the destination table the rows are written to.
	Table string

	// Rows holds the rows in the order the caller supplied them.
	Rows []Row

	// Columns is the column spec the rows conform to.
	Columns ColumnSpec
}

// NewBatch creates a batch for the given table.
func NewBatch(table string, rows []Row, cols ColumnSpec) Batch {
	return Batch{Table: table, Rows: rows, Columns: cols}
}

// Empty reports whether the batch carries no rows.
func (b Batch) Empty() bool {
	return len(b.Rows) == 0
}

// Size returns the number of rows in the batch.
func (b Batch) Size() int {
	return len(b.Rows)
}
