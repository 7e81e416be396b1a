package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/tidebase/rowship/internal/adapters/httpingest"
	"github.com/tidebase/rowship/internal/cliconfig"
	"github.com/tidebase/rowship/pkg/log"
	"github.com/tidebase/rowship/pkg/rowship"
	"github.com/tidebase/rowship/plugins/configwatcher"
)

const helpDescription = `
Buffer rows in memory and ship them to ClickHouse in batches.

Highlights:
  - Dual flush triggers: ship when a batch fills up or when rows have waited
    long enough, whichever comes first.
  - HTTP ingest API for non-Go producers: POST rows, get 202, move on.
  - At-least-once delivery with a bounded buffer; failed inserts are retried
    with backoff.
  - Configure via file, ROWSHIP_* environment variables, or flags.
`

var exampleUsage = strings.TrimSpace(`
  rowship --addr clickhouse:9000 --database analytics
  rowship --config $HOME/.rowship/config.toml --http-addr 0.0.0.0:8123
`)

const shutdownGrace = 10 * time.Second

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func newLogger(level string) (*log.ZerologAdapter, zerolog.Logger) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
	return log.NewZerologAdapterWithLogger(zl), zl
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "rowship",
		Short:   "Buffer rows in memory and ship them to ClickHouse in batches",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.rowship/config.toml),
			// then env, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
				cfg.ConfigPath = cfgFile
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, zl := newLogger(cfg.LogLevel)

			// Log configuration (masking the password)
			logCfg := cfg
			if len(logCfg.Password) > 0 {
				logCfg.Password = "*****"
			}
			zl.Info().Interface("config", logCfg).Msg("configuration")

			return run(cfg, logger, zl)
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.rowship/config.toml)")

	root.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "buffered batches that trigger a flush")
	root.Flags().DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "max age of buffered rows before a flush")
	root.Flags().DurationVar(&cfg.TickInterval, "tick-interval", cfg.TickInterval, "trigger evaluation interval")

	root.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "ClickHouse native protocol address")
	root.Flags().StringVar(&cfg.Database, "database", cfg.Database, "ClickHouse database")
	root.Flags().StringVar(&cfg.Username, "username", cfg.Username, "ClickHouse username")
	root.Flags().StringVar(&cfg.Password, "password", cfg.Password, "ClickHouse password")
	root.Flags().BoolVar(&cfg.Compress, "compress", cfg.Compress, "compress inserts with LZ4")
	root.Flags().DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "ClickHouse dial timeout")
	root.Flags().IntVar(&cfg.MaxOpenConns, "max-open-conns", cfg.MaxOpenConns, "max open ClickHouse connections")
	root.Flags().IntVar(&cfg.MaxIdleConns, "max-idle-conns", cfg.MaxIdleConns, "max idle ClickHouse connections")

	root.Flags().StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP ingest listen address")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rowship: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg cliconfig.Config, logger *log.ZerologAdapter, zl zerolog.Logger) error {
	opts := []rowship.Option{
		rowship.WithLogger(logger),
	}
	if cfg.ConfigPath != "" {
		opts = append(opts, configwatcher.WithConfigWatcher(configwatcher.Config{
			Path: cfg.ConfigPath,
			OnReload: func(cliconfig.Config) {
				// Engine knobs are fixed at startup; a reload only takes
				// effect after a restart.
				zl.Warn().Msg("config file changed, restart to apply engine settings")
			},
		}))
	}

	rs, err := rowship.New(cfg.Engine(), opts...)
	if err != nil {
		return fmt.Errorf("create rowship: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rs.Start(ctx); err != nil {
		return fmt.Errorf("start rowship: %w", err)
	}

	srv := httpingest.NewServer(cfg.HTTPAddr, rs, logger)
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zl.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
	case err := <-srvErr:
		if err != nil {
			zl.Error().Err(err).Msg("http server failed")
		}
	}

	// Stop accepting new rows first, then drain the buffer.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error().Err(err).Msg("http shutdown failed")
	}

	if err := rs.Stop(); err != nil {
		zl.Error().Err(err).Msg("stop failed")
	}
	if err := rs.Close(); err != nil {
		return fmt.Errorf("close rowship: %w", err)
	}
	return nil
}
