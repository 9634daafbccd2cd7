package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by ValidateConfig.
const (
	defaultIDColumn        = "sentence_id"
	defaultTextColumn      = "opposite_framing_sentence"
	defaultDatasetMaxSize  = 64 * 1024 * 1024 // 64 MiB
	defaultWorksheet       = "Sheet1"
	defaultPebblePath      = "./.annotations"
	defaultSQLitePath      = "./annotations.db"
	defaultCookieName      = "framelabel_session"
	defaultSessionMaxAge   = 12 * time.Hour
	defaultShutdownTimeout = 5 * time.Second
	defaultExportCron      = "0 3 * * *" // daily at 03:00
	defaultExportDir       = "./exports"
	defaultExportKeepLast  = 14
	defaultRateRPS         = 50
	defaultRateBurst       = 100
)

var (
	runtimeMu  sync.RWMutex
	runtimeCfg *RuntimeConfig
)

// SetRuntime sets the canonical runtime config used by the running server.
func SetRuntime(rc *RuntimeConfig) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeCfg = rc
}

// GetBackendKeys returns a copy of configured backend keys.
func GetBackendKeys() map[string]struct{} {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	out := make(map[string]struct{})
	if runtimeCfg == nil || runtimeCfg.BackendKeys == nil {
		return out
	}
	for k := range runtimeCfg.BackendKeys {
		out[k] = struct{}{}
	}
	return out
}

// GetAdminKeys returns a copy of configured admin keys.
func GetAdminKeys() map[string]struct{} {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	out := make(map[string]struct{})
	if runtimeCfg == nil || runtimeCfg.AdminKeys == nil {
		return out
	}
	for k := range runtimeCfg.AdminKeys {
		out[k] = struct{}{}
	}
	return out
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s: %w", path, err)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in zero values so the rest of the program never has
// to re-check them.
func (c *Config) applyDefaults() {
	if c.Dataset.IDColumn == "" {
		c.Dataset.IDColumn = defaultIDColumn
	}
	if c.Dataset.TextColumn == "" {
		c.Dataset.TextColumn = defaultTextColumn
	}
	if c.Dataset.MaxFileSize.Int64() == 0 {
		c.Dataset.MaxFileSize = SizeBytes(defaultDatasetMaxSize)
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "pebble"
	}
	if c.Store.Sheets.Worksheet == "" {
		c.Store.Sheets.Worksheet = defaultWorksheet
	}
	if c.Store.Pebble.Path == "" {
		c.Store.Pebble.Path = defaultPebblePath
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = defaultSQLitePath
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = defaultCookieName
	}
	if c.Session.MaxAge.Duration() == 0 {
		c.Session.MaxAge = Duration(defaultSessionMaxAge)
	}
	if c.Server.ShutdownTimeout.Duration() == 0 {
		c.Server.ShutdownTimeout = Duration(defaultShutdownTimeout)
	}
	if c.Export.Cron == "" {
		c.Export.Cron = defaultExportCron
	}
	if c.Export.Dir == "" {
		c.Export.Dir = defaultExportDir
	}
	if c.Export.KeepLast == 0 {
		c.Export.KeepLast = defaultExportKeepLast
	}
	if c.Security.RateLimit.RPS <= 0 {
		c.Security.RateLimit.RPS = defaultRateRPS
	}
	if c.Security.RateLimit.Burst <= 0 {
		c.Security.RateLimit.Burst = defaultRateBurst
	}
}

// ResolveConfigPath decides the config file path using the flag-provided value
// and the environment when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("FRAMELABEL_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
