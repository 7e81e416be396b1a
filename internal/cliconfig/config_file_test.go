package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name        string
		fileConfig  fileConfig
		changed     map[string]bool
		initial     Config
		expected    Config
		expectError bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: fileConfig{
				BatchSize:     500,
				FlushInterval: "10s",
				TickInterval:  "250ms",
				Addr:          "ch-1:9000",
				Database:      "analytics",
				Username:      "writer",
				Compress:      &trueVal,
				HTTPAddr:      "0.0.0.0:8200",
				LogLevel:      "debug",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				BatchSize:     500,
				FlushInterval: 10 * time.Second,
				TickInterval:  250 * time.Millisecond,
				Addr:          "ch-1:9000",
				Database:      "analytics",
				Username:      "writer",
				Compress:      true,
				HTTPAddr:      "0.0.0.0:8200",
				LogLevel:      "debug",
			},
		},
		{
			name: "respects changed flags",
			fileConfig: fileConfig{
				Addr:      "ch-file:9000",
				BatchSize: 500,
			},
			changed: map[string]bool{"addr": true},
			initial: Config{
				Addr: "ch-flag:9000",
			},
			expected: Config{
				Addr:      "ch-flag:9000", // unchanged because flag was set
				BatchSize: 500,
			},
		},
		{
			name: "invalid duration returns error",
			fileConfig: fileConfig{
				FlushInterval: "not-a-duration",
			},
			changed:     map[string]bool{},
			initial:     Config{},
			expectError: true,
		},
		{
			name: "zero values leave config untouched",
			fileConfig: fileConfig{
				BatchSize: 0,
				Addr:      "",
			},
			changed: map[string]bool{},
			initial: Config{
				BatchSize: 100,
				Addr:      "ch-0:9000",
			},
			expected: Config{
				BatchSize: 100,
				Addr:      "ch-0:9000",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := applyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.expectError {
				if err == nil {
					t.Fatal("applyFileConfig() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("applyFileConfig() error = %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
batch_size = 250
flush_interval = "3s"
addr = "clickhouse:9000"
database = "metrics"
compress = true
http_addr = "127.0.0.1:9999"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fc, err := loadFileConfig(path)
	if err != nil {
		t.Fatalf("loadFileConfig() error = %v", err)
	}

	if fc.BatchSize != 250 {
		t.Errorf("BatchSize = %d, want 250", fc.BatchSize)
	}
	if fc.FlushInterval != "3s" {
		t.Errorf("FlushInterval = %q, want %q", fc.FlushInterval, "3s")
	}
	if fc.Addr != "clickhouse:9000" {
		t.Errorf("Addr = %q, want %q", fc.Addr, "clickhouse:9000")
	}
	if fc.Database != "metrics" {
		t.Errorf("Database = %q, want %q", fc.Database, "metrics")
	}
	if fc.Compress == nil || !*fc.Compress {
		t.Error("Compress = nil or false, want true")
	}
	if fc.HTTPAddr != "127.0.0.1:9999" {
		t.Errorf("HTTPAddr = %q, want %q", fc.HTTPAddr, "127.0.0.1:9999")
	}
}

func TestLoadFileConfigMissingFile(t *testing.T) {
	_, err := loadFileConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("loadFileConfig() error = nil, want error")
	}
}

func TestLoadFileConfigInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("batch_size = [broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := loadFileConfig(path); err == nil {
		t.Fatal("loadFileConfig() error = nil, want error")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if !fileExists(path) {
		t.Error("fileExists() = false for existing file")
	}
	if fileExists(filepath.Join(dir, "absent")) {
		t.Error("fileExists() = true for missing file")
	}
}
