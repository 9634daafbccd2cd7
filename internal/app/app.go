package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"framelabel/pkg/api"
	"framelabel/pkg/config"
	"framelabel/pkg/dataset"
	"framelabel/pkg/export"
	"framelabel/pkg/logger"
	"framelabel/pkg/selection"
	"framelabel/pkg/sensor"
	"framelabel/pkg/session"
	"framelabel/pkg/store"
	"framelabel/pkg/web"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	data     *dataset.Catalog
	st       store.Store
	sess     *session.Manager
	picker   *selection.Picker
	pages    *web.Pages
	apiH     *api.Handlers
	watchdog *sensor.Watchdog

	exportCancel context.CancelFunc

	srv   *http.Server
	state string
}

// New initializes resources that do not require a running context
// (dataset, store, sessions, runtime keys). It does not start the export
// scheduler or the HTTP server; call Run to start those and block until
// shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	// validate effective config early and fail fast
	if err := config.ValidateConfig(eff); err != nil {
		return nil, err
	}
	cfg := eff.Config

	// runtime keys
	runtimeCfg := &config.RuntimeConfig{BackendKeys: map[string]struct{}{}, AdminKeys: map[string]struct{}{}}
	for _, k := range cfg.Security.APIKeys.Backend {
		runtimeCfg.BackendKeys[k] = struct{}{}
	}
	for _, k := range cfg.Security.APIKeys.Admin {
		runtimeCfg.AdminKeys[k] = struct{}{}
	}
	config.SetRuntime(runtimeCfg)

	// annotation audit journal
	if cfg.Logging.AuditDir != "" {
		if err := logger.AttachAuditFileSink(cfg.Logging.AuditDir); err != nil {
			return nil, fmt.Errorf("failed to attach audit sink at %s: %w", cfg.Logging.AuditDir, err)
		}
	}

	// the sentence catalog is immutable for the process lifetime
	data, err := dataset.Load(cfg.Dataset.Path, cfg.Dataset.IDColumn, cfg.Dataset.TextColumn, cfg.Dataset.MaxFileSize.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset at %s: %w", cfg.Dataset.Path, err)
	}
	logger.Info("dataset_loaded", "path", cfg.Dataset.Path, "sentences", humanize.Comma(int64(data.Len())))

	// open annotation store
	st, err := store.Open(context.Background(), cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		data:      data,
		st:        st,
		sess:      session.NewManager(cfg.Session),
		picker:    selection.New(cfg.Labels.Seed),
		state:     "created",
	}
	a.pages, err = web.New(a.data, a.st, a.sess, a.picker, cfg.Labels.RandomizeOrder)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to build page templates: %w", err)
	}
	a.apiH = api.New(a.data, a.st)
	if dirs := watchedDirs(cfg); len(dirs) > 0 {
		a.watchdog = sensor.NewWatchdog(dirs, 30*time.Second, minFreeDiskBytes)
	}
	return a, nil
}

// minFreeDiskBytes is the free-space floor below which readiness
// reports the node unfit for new annotations.
const minFreeDiskBytes = 256 << 20

// watchedDirs lists the local directories whose filesystems the
// watchdog should track. Remote backends contribute nothing.
func watchedDirs(cfg *config.Config) []string {
	var dirs []string
	switch cfg.Store.Backend {
	case "pebble":
		dirs = append(dirs, cfg.Store.Pebble.Path)
	case "sqlite":
		dirs = append(dirs, filepath.Dir(cfg.Store.SQLite.Path))
	}
	if cfg.Export.Enabled {
		dirs = append(dirs, cfg.Export.Dir)
	}
	return dirs
}

// Run starts the export scheduler (if enabled) and the HTTP server, and
// blocks until ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	if a.watchdog != nil {
		a.watchdog.Start()
	}

	cancel, err := export.New(a.st, a.eff.Config.Export).Start(ctx)
	if err != nil {
		return err
	}
	a.exportCancel = cancel

	errCh := a.startHTTP(ctx)
	a.state = "running"

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
