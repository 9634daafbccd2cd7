package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// RuntimeConfig holds runtime key sets for use by other packages.
type RuntimeConfig struct {
	BackendKeys map[string]struct{}
	AdminKeys   map[string]struct{}
}

// Config is the main configuration struct.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Store    StoreConfig    `yaml:"store"`
	Labels   LabelsConfig   `yaml:"labels"`
	Session  SessionConfig  `yaml:"session"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
	Export   ExportConfig   `yaml:"export"`
}

// ServerConfig holds http and tls settings.
type ServerConfig struct {
	Address         string    `yaml:"address"`
	Port            int       `yaml:"port"`
	ShutdownTimeout Duration  `yaml:"shutdown_timeout"`
	TLS             TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DatasetConfig locates the sentence CSV and names its columns.
type DatasetConfig struct {
	Path       string `yaml:"path"`
	IDColumn   string `yaml:"id_column"`
	TextColumn string `yaml:"text_column"`
	// MaxFileSize guards against pointing the loader at an oversized file.
	MaxFileSize SizeBytes `yaml:"max_file_size"`
}

// StoreConfig selects and configures the annotation backend.
type StoreConfig struct {
	// Backend is one of "sheets", "pebble" or "sqlite".
	Backend string       `yaml:"backend"`
	Sheets  SheetsConfig `yaml:"sheets"`
	Pebble  PebbleConfig `yaml:"pebble"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
}

// SheetsConfig holds Google Sheets backend settings.
type SheetsConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Worksheet       string `yaml:"worksheet"`
}

// PebbleConfig holds the local pebble backend settings.
type PebbleConfig struct {
	Path string `yaml:"path"`
}

// SQLiteConfig holds the local sqlite backend settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// LabelsConfig controls how the two label choices are presented.
type LabelsConfig struct {
	RandomizeOrder bool  `yaml:"randomize_order"`
	Seed           int64 `yaml:"seed"`
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	CookieName string   `yaml:"cookie_name"`
	Secret     string   `yaml:"secret"`
	MaxAge     Duration `yaml:"max_age"`
}

// SecurityConfig holds security related settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	IPWhitelist []string `yaml:"ip_whitelist"`
	APIKeys     struct {
		Backend []string `yaml:"backend"`
		Admin   []string `yaml:"admin"`
	} `yaml:"api_keys"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// AuditDir, when set, attaches a JSON audit sink recording stored annotations.
	AuditDir string `yaml:"audit_dir"`
}

// ExportConfig holds configuration for the scheduled CSV snapshot runner.
type ExportConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Cron     string `yaml:"cron"`
	Dir      string `yaml:"dir"`
	KeepLast int    `yaml:"keep_last"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
