package rowship

import "context"

// Plugin extends a Rowship instance with optional functionality.
// Plugins are initialized when the instance starts and shut down in reverse
// registration order when it stops.
type Plugin interface {
	// Name returns the plugin identifier, used in log output.
	Name() string

	// Initialize sets the plugin up. The context is canceled when the
	// instance stops; long-running plugin work should watch it.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and releases its resources.
	Shutdown(ctx context.Context) error
}

// PluginConfig provides plugins with the instance's runtime context.
type PluginConfig struct {
	// Config is a copy of the instance configuration after defaulting and
	// validation.
	Config Config

	// Logger is the instance logger.
	Logger Logger
}
