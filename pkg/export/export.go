// Package export writes periodic CSV snapshots of the annotation store.
//
// Snapshots land in the configured directory as
// annotations-<UTC stamp>.csv and older snapshots beyond keep_last are
// pruned after each successful run. Scheduling uses cron expressions.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"framelabel/pkg/config"
	"framelabel/pkg/logger"
	"framelabel/pkg/models"
	"framelabel/pkg/state"
	"framelabel/pkg/store"
)

const (
	filePrefix = "annotations-"
	fileSuffix = ".csv"
	stampFmt   = "20060102T150405Z"
)

// Exporter snapshots a store to CSV files on a cron schedule.
type Exporter struct {
	st  store.Store
	cfg config.ExportConfig
}

func New(st store.Store, cfg config.ExportConfig) *Exporter {
	return &Exporter{st: st, cfg: cfg}
}

// Start starts the export scheduler if enabled. Returns a cancel func.
func (e *Exporter) Start(ctx context.Context) (context.CancelFunc, error) {
	if !e.cfg.Enabled {
		logger.Info("export_disabled")
		return func() {}, nil
	}

	if err := state.EnsureDir(e.cfg.Dir); err != nil {
		logger.Error("export_dir_rejected", "path", e.cfg.Dir, "error", err)
		return nil, err
	}

	cronExpr := e.cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 3 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("export_invalid_cron", "cron", e.cfg.Cron)
		return nil, fmt.Errorf("invalid export cron expression: %s", e.cfg.Cron)
	}

	logger.Info("export_enabled", "cron", cronExpr, "dir", e.cfg.Dir, "keep_last", e.cfg.KeepLast)
	ctx2, cancel := context.WithCancel(ctx)

	go e.runScheduler(ctx2, cronExpr)

	logger.Info("export_scheduler_started", "dir", e.cfg.Dir)
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func (e *Exporter) runScheduler(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("export_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("export_nexttick_failed", "cron", cronExpr, "error", err)
			// fallback sleep then retry
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("export_scheduler_stopping")
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			// due now-ish; run immediately
			if _, err := e.RunImmediate(ctx); err != nil {
				logger.Error("export_run_error", "error", err)
			}
			// small sleep to avoid tight loop
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				logger.Info("export_scheduler_stopping")
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			if _, err := e.RunImmediate(ctx); err != nil {
				logger.Error("export_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("export_scheduler_stopping")
			return
		}
	}
}

// RunImmediate executes a single export run and returns the path of the
// written snapshot. Safe to call outside the scheduler (admin trigger,
// tests).
func (e *Exporter) RunImmediate(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	logger.Info("export_run_start", "run_id", runID, "dir", e.cfg.Dir)

	if err := state.EnsureDir(e.cfg.Dir); err != nil {
		return "", fmt.Errorf("export dir rejected: %w", err)
	}

	anns, err := e.st.ListAll(ctx)
	if err != nil {
		logger.Error("export_list_failed", "run_id", runID, "error", err)
		return "", fmt.Errorf("list annotations: %w", err)
	}

	name := filePrefix + time.Now().UTC().Format(stampFmt) + fileSuffix
	path := filepath.Join(e.cfg.Dir, name)
	if err := writeSnapshot(path, anns); err != nil {
		logger.Error("export_write_failed", "run_id", runID, "path", path, "error", err)
		return "", err
	}

	if logger.Audit != nil {
		logger.Audit.Info("export_run", "run_id", runID, "file", name, "rows", len(anns))
	}
	logger.Info("export_run_complete", "run_id", runID, "file", name, "rows", humanize.Comma(int64(len(anns))))

	if err := e.prune(); err != nil {
		logger.Error("export_prune_failed", "run_id", runID, "error", err)
	}
	return path, nil
}

func writeSnapshot(path string, anns []models.Annotation) error {
	rows := make([][]string, 0, len(anns)+1)
	rows = append(rows, models.AnnotationHeader)
	for _, a := range anns {
		rows = append(rows, a.Row())
	}
	return writeCSV(path, rows)
}

// prune removes the oldest snapshots so at most keep_last remain.
// keep_last <= 0 disables pruning.
func (e *Exporter) prune() error {
	if e.cfg.KeepLast <= 0 {
		return nil
	}
	entries, err := os.ReadDir(e.cfg.Dir)
	if err != nil {
		return err
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		n := ent.Name()
		if strings.HasPrefix(n, filePrefix) && strings.HasSuffix(n, fileSuffix) {
			names = append(names, n)
		}
	}
	if len(names) <= e.cfg.KeepLast {
		return nil
	}
	// stamp format sorts lexicographically
	sort.Strings(names)
	for _, n := range names[:len(names)-e.cfg.KeepLast] {
		p := filepath.Join(e.cfg.Dir, n)
		if err := os.Remove(p); err != nil {
			logger.Error("export_prune_remove_failed", "path", p, "error", err)
			continue
		}
		logger.Info("export_snapshot_pruned", "file", n)
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return f.Close()
}
