// Package httpingest exposes the row buffer over HTTP for non-Go producers.
//
// The surface is deliberately small: POST rows for a table, request a flush,
// and read buffer status. Ingestion is acknowledged with 202 Accepted as soon
// as the rows are buffered; delivery to ClickHouse happens in the background.
package httpingest
