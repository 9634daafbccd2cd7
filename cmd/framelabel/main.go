package main

import (
	"context"
	"path/filepath"

	"github.com/joho/godotenv"

	"framelabel/internal/app"
	"framelabel/pkg/config"
	"framelabel/pkg/logger"
	"framelabel/pkg/shutdown"
)

// build metadata, set via ldflags during release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	// parse config flags
	flags := config.ParseConfigFlags()

	// parse config file
	fileCfg, fileExists, err := config.ParseConfigFile(flags)
	if err != nil {
		shutdown.Abort("failed to load config file", err, "")
	}

	// parse config env variables
	envCfg, envRes := config.ParseConfigEnvs()

	// load effective config
	eff, err := config.LoadEffectiveConfig(flags, fileCfg, fileExists, envCfg, envRes)
	if err != nil {
		shutdown.Abort("failed to build effective config", err, "")
	}

	// validate config
	if err := config.ValidateConfig(eff); err != nil {
		shutdown.Abort("invalid configuration", err, stateDir(eff))
	}

	// initialize logger after config is fully loaded
	logger.InitWithLevel(eff.Config.Logging.Level)
	defer logger.Sync()

	logger.Info("effective_config_loaded", "source", eff.Source, "addr", eff.Addr, "dataset", eff.Config.Dataset.Path, "store", eff.Config.Store.Backend)
	logger.Info("config_validation_passed")

	// initialize app
	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("failed to initialize app", err, stateDir(eff))
	}

	// set up context and signal handling for graceful shutdown
	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	// run the app
	if err := a.Run(ctx); err != nil {
		shutdown.Abort("app run failed", err, stateDir(eff))
	}

	// shut down with a bounded timeout so teardown cannot hang forever
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), eff.Config.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()
	_ = a.Shutdown(shutdownCtx)
}

// stateDir picks a durable location for crash diagnostics next to the
// annotation data. Remote backends fall back to the working directory.
func stateDir(eff config.EffectiveConfigResult) string {
	if eff.Config == nil {
		return ""
	}
	switch eff.Config.Store.Backend {
	case "pebble":
		return eff.Config.Store.Pebble.Path
	case "sqlite":
		return filepath.Dir(eff.Config.Store.SQLite.Path)
	default:
		return ""
	}
}
