package configwatcher

import "github.com/tidebase/rowship/pkg/rowship"

// WithConfigWatcher returns a rowship Option that enables config file
// watching. The plugin reloads the file on change and hands the parsed
// result to cfg.OnReload.
//
// Usage:
//
//	rs, err := rowship.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path: "/etc/rowship/config.toml",
//	    }),
//	)
func WithConfigWatcher(cfg Config) rowship.Option {
	plugin := New(cfg)
	return rowship.WithPlugin(plugin)
}
