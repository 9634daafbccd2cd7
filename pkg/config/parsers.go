package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr    string
	Dataset string
	Config  string
	Set     map[string]bool
}

// EnvResult holds the results of applying environment overrides.
type EnvResult struct {
	BackendKeys map[string]struct{}
	AdminKeys   map[string]struct{}
	EnvUsed     bool
}

// EffectiveConfigResult holds the result of LoadEffectiveConfig.
type EffectiveConfigResult struct {
	Config      *Config
	Addr        string
	DatasetPath string
	Source      string // "flags", "config", or "env"
}

// ParseConfigFlags parses command-line flags and returns them as a Flags struct.
func ParseConfigFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dataPtr := flag.String("dataset", "./sentences.csv", "Path to the sentence CSV")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, Dataset: *dataPtr, Config: *cfgPtr, Set: setFlags}
}

// ParseConfigFile resolves the config path and loads the YAML file. It
// returns the parsed config, a boolean indicating whether the file was
// present, and an error for fatal parsing problems.
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// ParseConfigEnvs reads environment variables into a fresh Config and
// returns that env-only config plus an EnvResult describing keys present
// and whether envs were used. This function does not mutate any caller
// provided config.
func ParseConfigEnvs() (*Config, EnvResult) {
	envs := map[string]string{
		"SERVER_ADDR":    os.Getenv("FRAMELABEL_SERVER_ADDR"),
		"ADDR":           os.Getenv("FRAMELABEL_ADDR"),
		"SERVER_ADDRESS": os.Getenv("FRAMELABEL_SERVER_ADDRESS"),
		"SERVER_PORT":    os.Getenv("FRAMELABEL_SERVER_PORT"),

		"DATASET_PATH":          os.Getenv("FRAMELABEL_DATASET_PATH"),
		"DATASET_ID_COLUMN":     os.Getenv("FRAMELABEL_DATASET_ID_COLUMN"),
		"DATASET_TEXT_COLUMN":   os.Getenv("FRAMELABEL_DATASET_TEXT_COLUMN"),
		"DATASET_MAX_FILE_SIZE": os.Getenv("FRAMELABEL_DATASET_MAX_FILE_SIZE"),

		"STORE_BACKEND":           os.Getenv("FRAMELABEL_STORE_BACKEND"),
		"SHEETS_CREDENTIALS_FILE": os.Getenv("FRAMELABEL_SHEETS_CREDENTIALS_FILE"),
		"SHEETS_SPREADSHEET_ID":   os.Getenv("FRAMELABEL_SHEETS_SPREADSHEET_ID"),
		"SHEETS_WORKSHEET":        os.Getenv("FRAMELABEL_SHEETS_WORKSHEET"),
		"PEBBLE_PATH":             os.Getenv("FRAMELABEL_PEBBLE_PATH"),
		"SQLITE_PATH":             os.Getenv("FRAMELABEL_SQLITE_PATH"),

		"LABELS_RANDOMIZE_ORDER": os.Getenv("FRAMELABEL_LABELS_RANDOMIZE_ORDER"),
		"LABELS_SEED":            os.Getenv("FRAMELABEL_LABELS_SEED"),

		"SESSION_COOKIE_NAME": os.Getenv("FRAMELABEL_SESSION_COOKIE_NAME"),
		"SESSION_SECRET":      os.Getenv("FRAMELABEL_SESSION_SECRET"),
		"SESSION_MAX_AGE":     os.Getenv("FRAMELABEL_SESSION_MAX_AGE"),

		"CORS_ORIGINS":     os.Getenv("FRAMELABEL_CORS_ORIGINS"),
		"RATE_RPS":         os.Getenv("FRAMELABEL_RATE_RPS"),
		"RATE_BURST":       os.Getenv("FRAMELABEL_RATE_BURST"),
		"IP_WHITELIST":     os.Getenv("FRAMELABEL_IP_WHITELIST"),
		"API_BACKEND_KEYS": os.Getenv("FRAMELABEL_API_BACKEND_KEYS"),
		"API_ADMIN_KEYS":   os.Getenv("FRAMELABEL_API_ADMIN_KEYS"),

		"LOG_LEVEL": os.Getenv("FRAMELABEL_LOG_LEVEL"),
		"AUDIT_DIR": os.Getenv("FRAMELABEL_AUDIT_DIR"),

		"EXPORT_ENABLED":   os.Getenv("FRAMELABEL_EXPORT_ENABLED"),
		"EXPORT_CRON":      os.Getenv("FRAMELABEL_EXPORT_CRON"),
		"EXPORT_DIR":       os.Getenv("FRAMELABEL_EXPORT_DIR"),
		"EXPORT_KEEP_LAST": os.Getenv("FRAMELABEL_EXPORT_KEEP_LAST"),

		"TLS_CERT": os.Getenv("FRAMELABEL_TLS_CERT"),
		"TLS_KEY":  os.Getenv("FRAMELABEL_TLS_KEY"),

		"SHUTDOWN_TIMEOUT": os.Getenv("FRAMELABEL_SHUTDOWN_TIMEOUT"),
	}

	envUsed := false
	for _, v := range envs {
		if v != "" {
			envUsed = true
			break
		}
	}
	envCfg := &Config{}

	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	parseBool := func(v string) bool {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true
		default:
			return false
		}
	}

	parseDuration := func(v string) Duration {
		if strings.TrimSpace(v) == "" {
			return Duration(0)
		}
		if td, err := time.ParseDuration(v); err == nil {
			return Duration(td)
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return Duration(time.Duration(f * float64(time.Second)))
		}
		return Duration(0)
	}

	parseSizeBytes := func(v string) SizeBytes {
		if strings.TrimSpace(v) == "" {
			return SizeBytes(0)
		}
		if u, err := humanize.ParseBytes(v); err == nil {
			return SizeBytes(u)
		}
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return SizeBytes(i)
		}
		return SizeBytes(0)
	}

	// address variables, most specific first
	if v := envs["SERVER_ADDR"]; v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				envCfg.Server.Port = pi
			}
		} else {
			envCfg.Server.Address = v
		}
	} else if v := envs["ADDR"]; v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				envCfg.Server.Port = pi
			}
		} else {
			envCfg.Server.Address = v
		}
	} else {
		if host := envs["SERVER_ADDRESS"]; host != "" {
			envCfg.Server.Address = host
		}
		if port := envs["SERVER_PORT"]; port != "" {
			if pi, err := strconv.Atoi(port); err == nil {
				envCfg.Server.Port = pi
			}
		}
	}

	if v := envs["DATASET_PATH"]; v != "" {
		envCfg.Dataset.Path = v
	}
	if v := envs["DATASET_ID_COLUMN"]; v != "" {
		envCfg.Dataset.IDColumn = v
	}
	if v := envs["DATASET_TEXT_COLUMN"]; v != "" {
		envCfg.Dataset.TextColumn = v
	}
	if v := envs["DATASET_MAX_FILE_SIZE"]; v != "" {
		envCfg.Dataset.MaxFileSize = parseSizeBytes(v)
	}

	if v := envs["STORE_BACKEND"]; v != "" {
		envCfg.Store.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := envs["SHEETS_CREDENTIALS_FILE"]; v != "" {
		envCfg.Store.Sheets.CredentialsFile = v
	}
	if v := envs["SHEETS_SPREADSHEET_ID"]; v != "" {
		envCfg.Store.Sheets.SpreadsheetID = v
	}
	if v := envs["SHEETS_WORKSHEET"]; v != "" {
		envCfg.Store.Sheets.Worksheet = v
	}
	if v := envs["PEBBLE_PATH"]; v != "" {
		envCfg.Store.Pebble.Path = v
	}
	if v := envs["SQLITE_PATH"]; v != "" {
		envCfg.Store.SQLite.Path = v
	}

	if v := envs["LABELS_RANDOMIZE_ORDER"]; v != "" {
		envCfg.Labels.RandomizeOrder = parseBool(v)
	}
	if v := envs["LABELS_SEED"]; v != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			envCfg.Labels.Seed = i
		}
	}

	if v := envs["SESSION_COOKIE_NAME"]; v != "" {
		envCfg.Session.CookieName = v
	}
	if v := envs["SESSION_SECRET"]; v != "" {
		envCfg.Session.Secret = v
	}
	if v := envs["SESSION_MAX_AGE"]; v != "" {
		envCfg.Session.MaxAge = parseDuration(v)
	}

	if v := envs["CORS_ORIGINS"]; v != "" {
		envCfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := envs["RATE_RPS"]; v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envCfg.Security.RateLimit.RPS = f
		}
	}
	if v := envs["RATE_BURST"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Security.RateLimit.Burst = n
		}
	}
	if v := envs["IP_WHITELIST"]; v != "" {
		envCfg.Security.IPWhitelist = parseList(v)
	}
	if v := envs["API_BACKEND_KEYS"]; v != "" {
		envCfg.Security.APIKeys.Backend = parseList(v)
	}
	if v := envs["API_ADMIN_KEYS"]; v != "" {
		envCfg.Security.APIKeys.Admin = parseList(v)
	}

	if v := envs["LOG_LEVEL"]; v != "" {
		envCfg.Logging.Level = strings.TrimSpace(v)
	}
	if v := envs["AUDIT_DIR"]; v != "" {
		envCfg.Logging.AuditDir = v
	}

	if v := envs["EXPORT_ENABLED"]; v != "" {
		envCfg.Export.Enabled = parseBool(v)
	}
	if v := envs["EXPORT_CRON"]; v != "" {
		envCfg.Export.Cron = v
	}
	if v := envs["EXPORT_DIR"]; v != "" {
		envCfg.Export.Dir = v
	}
	if v := envs["EXPORT_KEEP_LAST"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Export.KeepLast = n
		}
	}

	if c := envs["TLS_CERT"]; c != "" {
		envCfg.Server.TLS.CertFile = c
	}
	if k := envs["TLS_KEY"]; k != "" {
		envCfg.Server.TLS.KeyFile = k
	}

	if v := envs["SHUTDOWN_TIMEOUT"]; v != "" {
		envCfg.Server.ShutdownTimeout = parseDuration(v)
	}

	backendKeys := make(map[string]struct{})
	for _, k := range envCfg.Security.APIKeys.Backend {
		backendKeys[k] = struct{}{}
	}
	adminKeys := make(map[string]struct{})
	for _, k := range envCfg.Security.APIKeys.Admin {
		adminKeys[k] = struct{}{}
	}
	return envCfg, EnvResult{BackendKeys: backendKeys, AdminKeys: adminKeys, EnvUsed: envUsed}
}

// LoadEffectiveConfig decides which single source to use (flags, config
// file, or env) and returns the effective config plus resolved addr and
// dataset path. It honors an explicit flags.Config (user provided
// --config) by using the config file only; otherwise it uses flags if any
// flags are set; else if a config file exists it uses that; otherwise env.
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config, envRes EnvResult) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	// If user explicitly passed --config, require the file to exist and use it.
	if flags.Set["config"] {
		if !fileExists {
			return res, fmt.Errorf("config file %s not found", flags.Config)
		}
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.DatasetPath = fileCfg.Dataset.Path
		res.Source = "config"
		return res, nil
	}

	// If user passed any non-config flags (addr/dataset), use flags exclusively.
	if flags.Set["addr"] || flags.Set["dataset"] {
		addr := flags.Addr
		if !flags.Set["addr"] {
			addr = envCfg.Addr()
			if addr == "" {
				addr = fileCfg.Addr()
			}
		}
		dataset := flags.Dataset
		if !flags.Set["dataset"] {
			if p := strings.TrimSpace(envCfg.Dataset.Path); p != "" {
				dataset = p
			} else if p := strings.TrimSpace(fileCfg.Dataset.Path); p != "" {
				dataset = p
			}
		}
		out := &Config{}
		out.Server.Address = addr
		out.Server.Port = parsePortFromAddr(addr)
		out.Dataset.Path = dataset
		res.Config = out
		res.Addr = addr
		res.DatasetPath = dataset
		res.Source = "flags"
		return res, nil
	}

	// No explicit flags: prefer file config if present, otherwise env.
	if fileExists {
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.DatasetPath = fileCfg.Dataset.Path
		res.Source = "config"
		return res, nil
	}
	res.Config = envCfg
	res.Addr = envCfg.Addr()
	res.DatasetPath = envCfg.Dataset.Path
	res.Source = "env"
	return res, nil
}

// parsePortFromAddr extracts port integer from host:port string.
func parsePortFromAddr(a string) int {
	if a == "" {
		return 0
	}
	if _, p, err := net.SplitHostPort(a); err == nil {
		if pi, err := strconv.Atoi(p); err == nil {
			return pi
		}
	}
	return 0
}
