package app

import (
	"context"

	"framelabel/pkg/logger"
)

// Shutdown stops components in dependency order: the HTTP listener first
// so no new annotations arrive, then the export scheduler, then the
// store. Errors are logged and teardown continues so a stuck component
// cannot keep the rest open.
func (a *App) Shutdown(ctx context.Context) error {
	a.state = "shutting_down"
	logger.Info("shutdown: requested")

	if a.srv != nil {
		logger.Info("shutdown: stopping HTTP server")
		if err := a.srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown: http shutdown error", "error", err)
		}
	}

	if a.exportCancel != nil {
		logger.Info("shutdown: stopping export scheduler")
		a.exportCancel()
	}

	if a.watchdog != nil {
		logger.Info("shutdown: stopping disk watchdog")
		a.watchdog.Stop()
	}

	if a.st != nil {
		logger.Info("shutdown: closing store")
		if err := a.st.Close(); err != nil {
			logger.Error("shutdown: store close error", "error", err)
		}
	}

	a.state = "stopped"
	logger.Info("shutdown: complete")
	return nil
}
