// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Hexagonal Architecture, ports are the boundaries between the application
// core and the outside world. They define what the buffering engine needs
// from external systems without specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [Sink]: Bulk-writes grouped rows to the downstream columnar store
//   - [Logger]: Structured logging abstraction (re-exported from pkg/log)
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// backends (ClickHouse native protocol, test fakes). This keeps the flush
// engine testable without a running database.
package ports
