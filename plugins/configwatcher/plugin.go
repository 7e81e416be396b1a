// Package configwatcher provides config file monitoring for rowship.
// When enabled, it watches the daemon's TOML config file for changes,
// reloads it, and hands the parsed result to a callback.
package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tidebase/rowship/internal/cliconfig"
	"github.com/tidebase/rowship/pkg/log"
	"github.com/tidebase/rowship/pkg/rowship"
)

// OnReload receives the freshly parsed daemon configuration after the
// watched file changes. It is called from the watcher goroutine.
type OnReload func(cfg cliconfig.Config)

// Plugin implements config file watching.
// It monitors a single TOML file and reloads it on write or create events,
// which covers both in-place edits and atomic rename-style rewrites.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	path          string
	debounceDelay time.Duration
	onReload      OnReload

	// Runtime state
	logger   rowship.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the TOML config file to watch. Required.
	Path string

	// DebounceDelay is the delay to wait after a file change before
	// reloading. Editors often produce bursts of events for one save.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// OnReload is invoked with the parsed config after each reload.
	// When nil, reloads are only logged.
	OnReload OnReload
}

// DefaultConfig returns a Config with sensible defaults.
// Path is left empty and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}

	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
		onReload:      cfg.OnReload,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize sets up the plugin and starts the watcher loop.
func (p *Plugin) Initialize(ctx context.Context, cfg rowship.PluginConfig) error {
	p.mu.Lock()
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.path == "" {
		p.logger.Warn("config watcher disabled: no config file path")
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher initialized", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the config watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// watchLoop watches the config file's directory for changes.
// The directory is watched rather than the file itself so rename-based
// rewrites keep producing events.
func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Error("config watcher: failed to create watcher")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		p.logger.Error("config watcher: failed to watch directory")
		return
	}

	want := filepath.Base(p.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != want {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload()

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher: watcher error")
		}
	}
}

func (p *Plugin) debounceReload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(p.debounceDelay, p.reload)
}

// reload parses the config file and hands it to the callback.
// Parse failures keep the previous configuration in effect.
func (p *Plugin) reload() {
	fc, err := cliconfig.LoadFileConfig(p.path)
	if err != nil {
		p.logger.Error("config watcher: reload failed", log.Err(err))
		return
	}

	cfg := cliconfig.DefaultConfig()
	cfg.ConfigPath = p.path
	if err := cliconfig.ApplyFileConfig(&cfg, fc, nil); err != nil {
		p.logger.Error("config watcher: invalid config", log.Err(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		p.logger.Error("config watcher: invalid config", log.Err(err))
		return
	}

	p.logger.Info("config file reloaded",
		log.Int("batch_size", cfg.BatchSize),
		log.Duration("flush_interval", cfg.FlushInterval))

	if p.onReload != nil {
		p.onReload(cfg)
	}
}
