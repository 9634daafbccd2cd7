package sensor

import (
	"math"
	"testing"
	"time"
)

func TestWatchdogFlagsLowDisk(t *testing.T) {
	// a threshold no real filesystem satisfies
	w := NewWatchdog([]string{t.TempDir()}, time.Hour, math.MaxUint64)
	w.sample()
	if !w.LowDisk() {
		t.Fatal("expected low-disk state under an unreachable threshold")
	}
}

func TestWatchdogRecovers(t *testing.T) {
	dir := t.TempDir()
	w := NewWatchdog([]string{dir}, time.Hour, math.MaxUint64)
	w.sample()
	if !w.LowDisk() {
		t.Fatal("expected low-disk state first")
	}
	w.minFree = 1
	w.sample()
	if w.LowDisk() {
		t.Fatal("expected recovery with a 1-byte threshold")
	}
}

func TestWatchdogSkipsMissingDir(t *testing.T) {
	w := NewWatchdog([]string{"/definitely/not/here"}, time.Hour, 1)
	w.sample()
	if w.LowDisk() {
		t.Fatal("missing dir must not count as low disk")
	}
}

func TestWatchdogStartStop(t *testing.T) {
	w := NewWatchdog([]string{t.TempDir()}, 10*time.Millisecond, 1)
	w.Start()
	time.Sleep(30 * time.Millisecond)
	w.Stop()
}
