package config

import (
	"errors"
	"log/slog"
	"testing"
)

func validConfig() *Config {
	return &Config{
		DatabasePath: "/tmp/eva/conversations.db",
		HistoryLimit: 10,
		LogLevel:     "info",
	}
}

func TestValidate(t *testing.T) {
	t.Run("accepts a valid configuration", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Errorf("Validate() failed: %v", err)
		}
	})

	t.Run("rejects empty database path", func(t *testing.T) {
		cfg := validConfig()
		cfg.DatabasePath = ""
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidDatabasePath) {
			t.Errorf("Validate() error = %v, want ErrInvalidDatabasePath", err)
		}
	})

	t.Run("rejects out-of-range history limit", func(t *testing.T) {
		for _, limit := range []int{0, -1, MaxHistoryLimit + 1} {
			cfg := validConfig()
			cfg.HistoryLimit = limit
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidHistoryLimit) {
				t.Errorf("Validate() with limit %d: error = %v, want ErrInvalidHistoryLimit",
					limit, err)
			}
		}
	})

	t.Run("rejects unknown log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.LogLevel = "verbose"
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidLogLevel) {
			t.Errorf("Validate() error = %v, want ErrInvalidLogLevel", err)
		}
	})
}

func TestSlogLevel(t *testing.T) {
	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range cases {
		cfg := validConfig()
		cfg.LogLevel = tc.level
		if got := cfg.SlogLevel(); got != tc.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("EVA_DATABASE_PATH", t.TempDir()+"/override.db")
	t.Setenv("EVA_HISTORY_LIMIT", "25")
	t.Setenv("EVA_LOG_LEVEL", "debug")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.HistoryLimit != 25 {
		t.Errorf("HistoryLimit = %d, want 25", cfg.HistoryLimit)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.HistoryLimit != DefaultHistoryLimit {
		t.Errorf("HistoryLimit = %d, want %d", cfg.HistoryLimit, DefaultHistoryLimit)
	}
	if cfg.DatabasePath == "" {
		t.Error("DatabasePath should default to a non-empty path")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}
