// Package rowship provides a buffered batch writer for ClickHouse.
//
// This root package is a thin convenience layer over pkg/rowship for
// callers that want a blocking run-until-cancelled entry point. Embedders
// who need the full API (Append, ForceFlush, events, plugins) should import
// github.com/tidebase/rowship/pkg/rowship directly.
//
// Example usage:
//
//	cfg := rowship.DefaultConfig()
//	cfg.Addr = "clickhouse:9000"
//	cfg.Database = "analytics"
//	if err := rowship.Run(context.Background(), cfg); err != nil {
//	    log.Fatal(err)
//	}
package rowship

import (
	"context"

	core "github.com/tidebase/rowship/pkg/rowship"
)

// Config holds the buffering and ClickHouse connection settings.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = core.Config

// Row is an ordered sequence of values conforming to a table's column spec.
type Row = core.Row

// ColumnSpec describes which columns an insert targets.
type ColumnSpec = core.ColumnSpec

// Option configures optional behavior of a Rowship instance.
type Option = core.Option

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// New creates a new Rowship instance. See pkg/rowship for the full API.
func New(cfg Config, opts ...Option) (*core.Rowship, error) {
	return core.New(cfg, opts...)
}

// Run starts background flushing and blocks until the context is cancelled,
// then drains the buffer and closes the connection. It is intended for
// daemon-style callers that feed rows from another goroutine via the
// returned instance of New; most embedders should use New directly instead.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	rs, err := core.New(cfg, opts...)
	if err != nil {
		return err
	}

	if err := rs.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopErr := rs.Stop()
	if closeErr := rs.Close(); stopErr == nil {
		stopErr = closeErr
	}
	return stopErr
}
