// Package cliconfig holds the daemon-level configuration for the rowship
// command: engine tuning, ClickHouse connection settings and the HTTP ingest
// listener. Values are resolved from four sources with ascending precedence:
// defaults, config file, ROWSHIP_* environment variables, command-line flags.
package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tidebase/rowship/pkg/rowship"
)

// DefaultHTTPAddr is the default listen address for the ingest API.
const DefaultHTTPAddr = "127.0.0.1:8123"

type Config struct {
	// Engine tuning.
	BatchSize     int
	FlushInterval time.Duration
	TickInterval  time.Duration

	// ClickHouse connection.
	Addr         string
	Database     string
	Username     string
	Password     string
	Compress     bool
	DialTimeout  time.Duration
	MaxOpenConns int
	MaxIdleConns int

	// Daemon surface.
	HTTPAddr string
	LogLevel string

	// ConfigPath records which file the config was loaded from, if any.
	// Used by the config watcher plugin.
	ConfigPath string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	engine := rowship.Config{}
	engine.SetDefaults()

	return Config{
		BatchSize:     engine.BatchSize,
		FlushInterval: engine.FlushInterval,
		TickInterval:  engine.TickInterval,
		Addr:          engine.Addr,
		Database:      engine.Database,
		DialTimeout:   engine.DialTimeout,
		MaxOpenConns:  engine.MaxOpenConns,
		MaxIdleConns:  engine.MaxIdleConns,
		HTTPAddr:      DefaultHTTPAddr,
		LogLevel:      "info",
		Password:      os.Getenv("ROWSHIP_PASSWORD"),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http-addr is required")
	}
	engine := c.Engine()
	return engine.Validate()
}

// Engine returns the buffering configuration for the embedded engine.
func (c *Config) Engine() rowship.Config {
	return rowship.Config{
		BatchSize:     c.BatchSize,
		FlushInterval: c.FlushInterval,
		TickInterval:  c.TickInterval,
		Addr:          c.Addr,
		Database:      c.Database,
		Username:      c.Username,
		Password:      c.Password,
		Compress:      c.Compress,
		DialTimeout:   c.DialTimeout,
		MaxOpenConns:  c.MaxOpenConns,
		MaxIdleConns:  c.MaxIdleConns,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
