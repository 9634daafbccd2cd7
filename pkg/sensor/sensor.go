// Package sensor watches the filesystems backing the annotation store
// and the export directory. An append-only server fails quietly once
// its disk fills, so the watchdog surfaces shrinking space early
// through the log and /metrics, and readiness can refuse traffic while
// space is critical.
package sensor

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sys/unix"

	"framelabel/pkg/logger"
)

var diskFreeBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "framelabel_disk_free_bytes",
	Help: "Free bytes on the filesystem backing each watched directory.",
}, []string{"dir"})

// Watchdog polls free space under each watched directory and keeps an
// edge-triggered low/recovered state per directory.
type Watchdog struct {
	dirs     []string
	interval time.Duration
	minFree  uint64

	mu  sync.RWMutex
	low map[string]bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatchdog watches dirs every interval and flags any filesystem with
// fewer than minFree bytes available. A zero interval defaults to 30s.
func NewWatchdog(dirs []string, interval time.Duration, minFree uint64) *Watchdog {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watchdog{
		dirs:     append([]string{}, dirs...),
		interval: interval,
		minFree:  minFree,
		low:      make(map[string]bool, len(dirs)),
	}
}

// Start begins background polling. Call Stop to terminate.
func (w *Watchdog) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		// warm initial sample
		w.sample()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.sample()
			}
		}
	}()
}

// Stop stops background polling and waits for the poller to exit.
func (w *Watchdog) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// LowDisk reports whether any watched filesystem is below the minimum.
func (w *Watchdog) LowDisk() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, v := range w.low {
		if v {
			return true
		}
	}
	return false
}

// sample refreshes the free-space gauge and logs threshold crossings.
func (w *Watchdog) sample() {
	for _, dir := range w.dirs {
		var fs unix.Statfs_t
		if err := unix.Statfs(dir, &fs); err != nil {
			// the dir may not exist yet; skip quietly
			continue
		}
		free := uint64(fs.Bavail) * uint64(fs.Bsize)
		diskFreeBytes.WithLabelValues(dir).Set(float64(free))

		w.mu.Lock()
		wasLow := w.low[dir]
		isLow := free < w.minFree
		w.low[dir] = isLow
		w.mu.Unlock()

		if isLow && !wasLow {
			logger.Warn("disk_space_low", "dir", dir, "free_bytes", free, "min_free_bytes", w.minFree)
		} else if !isLow && wasLow {
			logger.Info("disk_space_recovered", "dir", dir, "free_bytes", free)
		}
	}
}
