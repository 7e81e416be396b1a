package rowship

import (
	"fmt"
	"time"

	"github.com/tidebase/rowship/internal/domain"
)

// Default configuration values.
const (
	DefaultBatchSize     = 100
	DefaultFlushInterval = 5 * time.Second
	DefaultTickInterval  = 100 * time.Millisecond
	DefaultAddr          = "127.0.0.1:9000"
	DefaultDatabase      = "default"
	DefaultDialTimeout   = 5 * time.Second
	DefaultMaxOpenConns  = 5
	DefaultMaxIdleConns  = 2
)

// Config configures a Rowship instance.
type Config struct {
	// BatchSize is the size trigger threshold: a flush fires when at least
	// this many batches (one per Append call) are pending. It also bounds
	// the buffer, which holds at most 2x BatchSize batches before evicting
	// the oldest.
	BatchSize int

	// FlushInterval is the time trigger threshold: a flush fires when this
	// much time has passed since the last flush and data is pending.
	FlushInterval time.Duration

	// TickInterval is the background scheduler's wake granularity.
	TickInterval time.Duration

	// Addr is the ClickHouse native-protocol address, host:port.
	// Ignored when a sink is injected with WithSink.
	Addr string

	// Database is the default database for the connection.
	Database string

	Username string
	Password string

	// Compress enables LZ4 compression on the wire.
	Compress bool

	DialTimeout  time.Duration
	MaxOpenConns int
	MaxIdleConns int
}

// SetDefaults fills in zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be positive", domain.ErrInvalidConfig)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("%w: flush interval must be positive", domain.ErrInvalidConfig)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", domain.ErrInvalidConfig)
	}
	if c.TickInterval > c.FlushInterval {
		return fmt.Errorf("%w: tick interval must not exceed flush interval", domain.ErrInvalidConfig)
	}
	return nil
}
