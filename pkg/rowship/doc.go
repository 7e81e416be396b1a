// Package rowship provides an embeddable buffered row writer for ClickHouse.
//
// Rowship accumulates rows in memory and ships them to ClickHouse in batches,
// flushing either when enough rows have accumulated or when buffered rows have
// waited long enough. It can be used as a standalone daemon or embedded as a
// library in other Go programs.
//
// # Basic Usage
//
// To embed rowship in your application:
//
//	cfg := rowship.Config{
//	    Addr:     "clickhouse:9000",
//	    Database: "analytics",
//	}
//
//	rs, err := rowship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rs.Close()
//
//	rs.Append("events", []rowship.Row{
//	    {"signup", time.Now()},
//	    {"login", time.Now()},
//	}, rowship.Columns("kind", "at"))
//
// Append is fire-and-forget: it never blocks on the network, and the first
// call starts the background flush scheduler automatically. Rows for
// different tables may be interleaved freely; each flush groups them per
// table.
//
// # Delivery Semantics
//
// Delivery is at-least-once. A failed insert puts the drained batches back in
// the buffer for the next attempt, so a partially failed flush can re-deliver
// rows that already reached the server. The buffer is bounded; under
// sustained sink outage the oldest batches are evicted to admit new ones
// (see [Rowship.Evicted]).
//
// # Configuration
//
// Create a [Config]; all fields have sensible defaults set via
// [Config.SetDefaults]. BatchSize and FlushInterval control the two flush
// triggers.
//
// # Event Handling
//
// To observe flushes and lifecycle transitions, implement [EventHandler] and
// pass it via [WithEventHandler]. Events are called synchronously from the
// scheduler goroutine; implementations should return quickly.
//
// # Dependency Injection
//
// For testing, inject custom implementations of external dependencies:
//
//	rs, err := rowship.New(cfg,
//	    rowship.WithSink(fakeSink),
//	    rowship.WithLogger(customLogger),
//	)
//
// # Lifecycle States
//
// A Rowship instance can be in one of five states: [StateStopped],
// [StateStarting], [StateRunning], [StateStopping], or [StateCrashed]. Use
// [Rowship.Status] to query the current state.
package rowship
