package ports

import "github.com/tidebase/rowship/pkg/log"

// Logger is the structured logging port, re-exported from pkg/log so the
// application layer has a single import for its dependencies.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors, re-exported for the application layer.
var (
	String   = log.String
	Int      = log.Int
	Uint64   = log.Uint64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any
)
