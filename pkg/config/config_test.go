package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return p
}

func TestLoadConfigFile(t *testing.T) {
	p := writeConfig(t, `
server:
  address: 127.0.0.1
  port: 9090
  shutdown_timeout: 90s
dataset:
  path: ./sentences.csv
  max_file_size: 64MB
session:
  max_age: 2.5
logging:
  level: debug
`)
	c, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("expected port 9090 got %d", c.Server.Port)
	}
	if got := c.Server.ShutdownTimeout.Duration(); got != 90*time.Second {
		t.Fatalf("expected shutdown_timeout 90s got %v", got)
	}
	if got := c.Dataset.MaxFileSize.Int64(); got != 64*1000*1000 {
		t.Fatalf("expected max_file_size 64MB got %d", got)
	}
	// bare numbers are seconds
	if got := c.Session.MaxAge.Duration(); got != 2500*time.Millisecond {
		t.Fatalf("expected max_age 2.5s got %v", got)
	}
	if c.Logging.Level != "debug" {
		t.Fatalf("expected log level debug got %q", c.Logging.Level)
	}
}

func TestLoadConfigFileRejectsBadValues(t *testing.T) {
	p := writeConfig(t, "dataset:\n  max_file_size: sixty-four\n")
	if _, err := LoadConfigFile(p); err == nil {
		t.Fatalf("expected error for unparseable size")
	}
	p = writeConfig(t, "server:\n  shutdown_timeout: soonish\n")
	if _, err := LoadConfigFile(p); err == nil {
		t.Fatalf("expected error for unparseable duration")
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped os.ErrNotExist got %v", err)
	}
}

func TestResolveConfigPath(t *testing.T) {
	if got := ResolveConfigPath("/explicit.yaml", true); got != "/explicit.yaml" {
		t.Fatalf("explicit flag should win, got %q", got)
	}
	os.Setenv("FRAMELABEL_CONFIG", "/from-env.yaml")
	defer os.Unsetenv("FRAMELABEL_CONFIG")
	if got := ResolveConfigPath("/default.yaml", false); got != "/from-env.yaml" {
		t.Fatalf("env should win over unset flag, got %q", got)
	}
	os.Unsetenv("FRAMELABEL_CONFIG")
	if got := ResolveConfigPath("/default.yaml", false); got != "/default.yaml" {
		t.Fatalf("expected flag default fallback, got %q", got)
	}
}

func TestLoadEffectiveConfigExplicitConfigRequiresFile(t *testing.T) {
	flags := Flags{Config: "/nope.yaml", Set: map[string]bool{"config": true}}
	_, err := LoadEffectiveConfig(flags, &Config{}, false, &Config{}, EnvResult{})
	if err == nil {
		t.Fatalf("expected error when --config points at a missing file")
	}
}

func TestLoadEffectiveConfigFlagsExclusive(t *testing.T) {
	flags := Flags{
		Addr:    "127.0.0.1:9999",
		Dataset: "./sentences.csv",
		Set:     map[string]bool{"addr": true},
	}
	envCfg := &Config{}
	envCfg.Dataset.Path = "/env/data.csv"
	fileCfg := &Config{}
	fileCfg.Dataset.Path = "/file/data.csv"

	res, err := LoadEffectiveConfig(flags, fileCfg, true, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig failed: %v", err)
	}
	if res.Source != "flags" {
		t.Fatalf("expected source flags got %q", res.Source)
	}
	if res.Addr != "127.0.0.1:9999" {
		t.Fatalf("expected flag addr got %q", res.Addr)
	}
	if res.Config.Server.Port != 9999 {
		t.Fatalf("expected port parsed from addr, got %d", res.Config.Server.Port)
	}
	// the unset dataset flag falls back to env before file
	if res.DatasetPath != "/env/data.csv" {
		t.Fatalf("expected env dataset fallback got %q", res.DatasetPath)
	}
}

func TestLoadEffectiveConfigPrefersFileOverEnv(t *testing.T) {
	fileCfg := &Config{}
	fileCfg.Server.Address = "10.0.0.1"
	fileCfg.Server.Port = 8443
	fileCfg.Dataset.Path = "/file/data.csv"
	envCfg := &Config{}
	envCfg.Dataset.Path = "/env/data.csv"

	res, err := LoadEffectiveConfig(Flags{Set: map[string]bool{}}, fileCfg, true, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig failed: %v", err)
	}
	if res.Source != "config" || res.Addr != "10.0.0.1:8443" || res.DatasetPath != "/file/data.csv" {
		t.Fatalf("expected file config to win, got %+v", res)
	}

	res, err = LoadEffectiveConfig(Flags{Set: map[string]bool{}}, &Config{}, false, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig failed: %v", err)
	}
	if res.Source != "env" || res.DatasetPath != "/env/data.csv" {
		t.Fatalf("expected env fallback, got %+v", res)
	}
}

func TestParseConfigEnvs(t *testing.T) {
	os.Setenv("FRAMELABEL_SERVER_ADDR", "192.168.1.5:7070")
	os.Setenv("FRAMELABEL_STORE_BACKEND", " SQLite ")
	os.Setenv("FRAMELABEL_API_BACKEND_KEYS", "k1, k2 ,,k3")
	os.Setenv("FRAMELABEL_LABELS_RANDOMIZE_ORDER", "yes")
	defer func() {
		os.Unsetenv("FRAMELABEL_SERVER_ADDR")
		os.Unsetenv("FRAMELABEL_STORE_BACKEND")
		os.Unsetenv("FRAMELABEL_API_BACKEND_KEYS")
		os.Unsetenv("FRAMELABEL_LABELS_RANDOMIZE_ORDER")
	}()

	cfg, envRes := ParseConfigEnvs()
	if !envRes.EnvUsed {
		t.Fatalf("expected EnvUsed true")
	}
	if cfg.Server.Address != "192.168.1.5" || cfg.Server.Port != 7070 {
		t.Fatalf("expected host/port split, got %q %d", cfg.Server.Address, cfg.Server.Port)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Fatalf("expected normalized backend sqlite got %q", cfg.Store.Backend)
	}
	if len(cfg.Security.APIKeys.Backend) != 3 {
		t.Fatalf("expected 3 backend keys got %v", cfg.Security.APIKeys.Backend)
	}
	if _, ok := envRes.BackendKeys["k2"]; !ok {
		t.Fatalf("expected trimmed key k2 in set, got %v", envRes.BackendKeys)
	}
	if !cfg.Labels.RandomizeOrder {
		t.Fatalf("expected randomize_order true")
	}
}

func TestValidateConfigAppliesDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Dataset.Path = "./sentences.csv"
	eff := EffectiveConfigResult{Config: cfg, DatasetPath: cfg.Dataset.Path}
	if err := ValidateConfig(eff); err != nil {
		t.Fatalf("ValidateConfig failed: %v", err)
	}
	if cfg.Dataset.IDColumn != "sentence_id" {
		t.Fatalf("expected default id column got %q", cfg.Dataset.IDColumn)
	}
	if cfg.Dataset.TextColumn != "opposite_framing_sentence" {
		t.Fatalf("expected default text column got %q", cfg.Dataset.TextColumn)
	}
	if cfg.Store.Backend != "pebble" {
		t.Fatalf("expected default backend pebble got %q", cfg.Store.Backend)
	}
	if cfg.Session.CookieName != "framelabel_session" {
		t.Fatalf("expected default cookie name got %q", cfg.Session.CookieName)
	}
	if got := cfg.Server.ShutdownTimeout.Duration(); got != 5*time.Second {
		t.Fatalf("expected default shutdown timeout got %v", got)
	}
	if cfg.Export.Cron != "0 3 * * *" || cfg.Export.KeepLast != 14 {
		t.Fatalf("expected export defaults got %q keep %d", cfg.Export.Cron, cfg.Export.KeepLast)
	}
	if cfg.Security.RateLimit.RPS != 50 || cfg.Security.RateLimit.Burst != 100 {
		t.Fatalf("expected rate limit defaults got %v/%d",
			cfg.Security.RateLimit.RPS, cfg.Security.RateLimit.Burst)
	}
}

func TestValidateConfigFillsDatasetFromResolvedPath(t *testing.T) {
	cfg := &Config{}
	eff := EffectiveConfigResult{Config: cfg, DatasetPath: "/resolved/data.csv"}
	if err := ValidateConfig(eff); err != nil {
		t.Fatalf("ValidateConfig failed: %v", err)
	}
	if cfg.Dataset.Path != "/resolved/data.csv" {
		t.Fatalf("expected dataset path copied from resolution, got %q", cfg.Dataset.Path)
	}
}

func TestValidateConfigRejections(t *testing.T) {
	if err := ValidateConfig(EffectiveConfigResult{}); err == nil {
		t.Fatalf("expected error for nil config")
	}

	if err := ValidateConfig(EffectiveConfigResult{Config: &Config{}}); err == nil {
		t.Fatalf("expected error for empty dataset path")
	}

	cfg := &Config{}
	cfg.Dataset.Path = "./sentences.csv"
	cfg.Server.TLS.CertFile = "/some/cert.pem"
	if err := ValidateConfig(EffectiveConfigResult{Config: cfg}); err == nil {
		t.Fatalf("expected error for cert without key")
	}

	cfg = &Config{}
	cfg.Dataset.Path = "./sentences.csv"
	cfg.Store.Backend = "dynamodb"
	if err := ValidateConfig(EffectiveConfigResult{Config: cfg}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}

	cfg = &Config{}
	cfg.Dataset.Path = "./sentences.csv"
	cfg.Store.Backend = "sheets"
	if err := ValidateConfig(EffectiveConfigResult{Config: cfg}); err == nil {
		t.Fatalf("expected error for sheets without spreadsheet id")
	}

	cfg = &Config{}
	cfg.Dataset.Path = "./sentences.csv"
	cfg.Export.Enabled = true
	cfg.Export.Cron = "every tuesday"
	if err := ValidateConfig(EffectiveConfigResult{Config: cfg}); err == nil {
		t.Fatalf("expected error for invalid cron expression")
	}

	cfg = &Config{}
	cfg.Dataset.Path = "./sentences.csv"
	cfg.Export.Enabled = true
	cfg.Export.KeepLast = -1
	if err := ValidateConfig(EffectiveConfigResult{Config: cfg}); err == nil {
		t.Fatalf("expected error for negative keep_last")
	}
}

func TestRuntimeKeysReturnCopies(t *testing.T) {
	SetRuntime(&RuntimeConfig{
		BackendKeys: map[string]struct{}{"bk": {}},
		AdminKeys:   map[string]struct{}{"ak": {}},
	})
	defer SetRuntime(nil)

	got := GetBackendKeys()
	if _, ok := got["bk"]; !ok {
		t.Fatalf("expected backend key present, got %v", got)
	}
	got["rogue"] = struct{}{}
	if _, ok := GetBackendKeys()["rogue"]; ok {
		t.Fatalf("mutating the returned map must not affect runtime state")
	}
	if _, ok := GetAdminKeys()["ak"]; !ok {
		t.Fatalf("expected admin key present")
	}
}

func TestRuntimeKeysNilSafe(t *testing.T) {
	SetRuntime(nil)
	if got := GetBackendKeys(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty map with nil runtime, got %v", got)
	}
}
