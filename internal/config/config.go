package config

import (
	"os"
	"path/filepath"
	"time"
)

type WatchConfig struct {
	Enabled        bool
	DebounceWindow time.Duration
	MaxBatchSize   int
	IgnorePatterns []string
}

type CacheConfig struct {
	Size int
}

type Config struct {
	SocketPath   string
	DatabasePath string
	LogLevel     string
	LogFormat    string
	Cache        CacheConfig
	Watch        WatchConfig
}

func Load() *Config {
	homeDir, _ := os.UserHomeDir()
	sodlcDir := filepath.Join(homeDir, ".sodlc")
	socketPath := filepath.Join(sodlcDir, "daemon.sock")
	dbPath := filepath.Join(sodlcDir, "results.db")

	return &Config{
		SocketPath:   socketPath,
		DatabasePath: dbPath,
		LogLevel:     "info",
		LogFormat:    "text",
		Cache: CacheConfig{
			Size: 256,
		},
		Watch: WatchConfig{
			Enabled:        true,
			DebounceWindow: 300 * time.Millisecond,
			MaxBatchSize:   100,
			IgnorePatterns: []string{
				"**/.git/**",
				"**/node_modules/**",
				"**/vendor/**",
				"**/dist/**",
				"**/build/**",
			},
		},
	}
}

func (c *Config) EnsureDirectories() error {
	homeDir, _ := os.UserHomeDir()
	sodlcDir := filepath.Join(homeDir, ".sodlc")
	return os.MkdirAll(sodlcDir, 0700)
}
