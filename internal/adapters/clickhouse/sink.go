// Package clickhouse implements the sink port over the ClickHouse native
// protocol using clickhouse-go.
package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/tidebase/rowship/internal/domain"
	"github.com/tidebase/rowship/internal/ports"
)

// Config configures the ClickHouse connection.
type Config struct {
	// Addr is the native-protocol address, host:port.
	Addr string

	Database string
	Username string
	Password string

	// Compress enables LZ4 compression on the wire.
	Compress bool

	DialTimeout  time.Duration
	MaxOpenConns int
	MaxIdleConns int
}

// Sink is a ports.Sink backed by a ClickHouse connection pool.
type Sink struct {
	conn   driver.Conn
	logger ports.Logger
}

var _ ports.Sink = (*Sink)(nil)

// Open dials ClickHouse and verifies connectivity with a ping.
func Open(ctx context.Context, cfg Config, logger ports.Logger) (*Sink, error) {
	opts := &clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout:  cfg.DialTimeout,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		ClientInfo:   buildClientInfo(),
	}
	if cfg.Compress {
		opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", classify(err))
	}

	logger.Info("clickhouse connected",
		ports.String("addr", cfg.Addr),
		ports.String("database", cfg.Database),
	)

	return &Sink{conn: conn, logger: logger}, nil
}

// NewWithConn wraps an existing driver connection. Used by tests and by
// callers that manage the pool themselves.
func NewWithConn(conn driver.Conn, logger ports.Logger) *Sink {
	return &Sink{conn: conn, logger: logger}
}

// Insert bulk-writes rows into table using a prepared native batch.
// Row order is preserved. Failures are classified into the sink error
// taxonomy so the flusher can branch on them.
func (s *Sink) Insert(ctx context.Context, table string, rows []domain.Row, cols domain.ColumnSpec) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, insertStatement(table, cols))
	if err != nil {
		return fmt.Errorf("prepare batch for %s: %w", table, classify(err))
	}

	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append row to %s: %w", table, classify(err))
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch to %s: %w", table, classify(err))
	}

	return nil
}

// Ping verifies connectivity.
func (s *Sink) Ping(ctx context.Context) error {
	if err := s.conn.Ping(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Sink) Close() error {
	return s.conn.Close()
}

// insertStatement renders the INSERT head for a table and column spec.
// A wildcard spec omits the column list so the server infers it.
func insertStatement(table string, cols domain.ColumnSpec) string {
	if cols.IsWildcard() {
		return "INSERT INTO " + table
	}
	return "INSERT INTO " + table + " (" + strings.Join(cols.Names(), ", ") + ")"
}

// classify maps driver errors onto the sink error taxonomy. Server-side
// exceptions mean the sink received the insert and refused it; everything
// else that isn't a context error is treated as a transport problem.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var exc *clickhouse.Exception
	if errors.As(err, &exc) {
		return fmt.Errorf("%w: code %d: %s", domain.ErrSinkRejected, exc.Code, exc.Message)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrSinkUnavailable, err)
	}

	return fmt.Errorf("%w: %v", domain.ErrSinkUnavailable, err)
}
