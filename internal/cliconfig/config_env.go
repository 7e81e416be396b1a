package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (ROWSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if err := s.setIntFromString("batch-size", os.Getenv("ROWSHIP_BATCH_SIZE"), &cfg.BatchSize); err != nil {
		return err
	}
	if err := s.setDuration("flush-interval", os.Getenv("ROWSHIP_FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("tick-interval", os.Getenv("ROWSHIP_TICK_INTERVAL"), &cfg.TickInterval); err != nil {
		return err
	}

	s.setString("addr", os.Getenv("ROWSHIP_ADDR"), &cfg.Addr)
	s.setString("database", os.Getenv("ROWSHIP_DATABASE"), &cfg.Database)
	s.setString("username", os.Getenv("ROWSHIP_USERNAME"), &cfg.Username)
	s.setString("password", os.Getenv("ROWSHIP_PASSWORD"), &cfg.Password)
	s.setBoolFromString("compress", os.Getenv("ROWSHIP_COMPRESS"), &cfg.Compress)
	if err := s.setDuration("dial-timeout", os.Getenv("ROWSHIP_DIAL_TIMEOUT"), &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setIntFromString("max-open-conns", os.Getenv("ROWSHIP_MAX_OPEN_CONNS"), &cfg.MaxOpenConns); err != nil {
		return err
	}
	if err := s.setIntFromString("max-idle-conns", os.Getenv("ROWSHIP_MAX_IDLE_CONNS"), &cfg.MaxIdleConns); err != nil {
		return err
	}

	s.setString("http-addr", os.Getenv("ROWSHIP_HTTP_ADDR"), &cfg.HTTPAddr)
	s.setString("log-level", os.Getenv("ROWSHIP_LOG_LEVEL"), &cfg.LogLevel)

	return nil
}
