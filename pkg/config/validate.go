package config

import (
	"fmt"
	"os"

	"github.com/adhocore/gronx"
)

// ValidateConfig applies defaults and fails fast on critical errors.
func ValidateConfig(eff EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("effective config is nil")
	}
	cfg.applyDefaults()

	// Dataset path must be present
	if eff.DatasetPath == "" && cfg.Dataset.Path == "" {
		return fmt.Errorf("dataset path is empty: set --dataset flag, FRAMELABEL_DATASET_PATH env, or dataset.path in config")
	}
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = eff.DatasetPath
	}

	// TLS cert/key presence check if one is set
	cert := cfg.Server.TLS.CertFile
	key := cfg.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	// Store backend checks
	switch cfg.Store.Backend {
	case "pebble", "sqlite":
	case "sheets":
		if cfg.Store.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("sheets backend requires store.sheets.spreadsheet_id")
		}
		if f := cfg.Store.Sheets.CredentialsFile; f != "" {
			if _, err := os.Stat(f); err != nil {
				return fmt.Errorf("sheets credentials file not accessible: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown store backend %q: expected sheets, pebble or sqlite", cfg.Store.Backend)
	}

	// Export cron syntax, only checked when the runner will use it
	if cfg.Export.Enabled {
		gron := gronx.New()
		if !gron.IsValid(cfg.Export.Cron) {
			return fmt.Errorf("invalid export.cron: not a valid cron expression")
		}
		if cfg.Export.KeepLast < 0 {
			return fmt.Errorf("export.keep_last must not be negative")
		}
	}

	return nil
}
