package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"framelabel/pkg/config"
	"framelabel/pkg/models"
)

type memStore struct {
	anns []models.Annotation
}

func (m *memStore) ListAll(ctx context.Context) ([]models.Annotation, error) {
	return m.anns, nil
}

func (m *memStore) Append(ctx context.Context, a models.Annotation) error {
	m.anns = append(m.anns, a)
	return nil
}

func (m *memStore) Close() error { return nil }

func TestRunImmediateWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	st := &memStore{anns: []models.Annotation{
		{AnnotatorID: "alice", SentenceID: "s1", Label: models.LabelPositive, Timestamp: "2026-01-02T03:04:05Z", LabelOrderFirst: models.LabelPositive},
		{AnnotatorID: "bob", SentenceID: "s2", Label: models.LabelNegative, Timestamp: "2026-01-02T03:05:05Z", LabelOrderFirst: models.LabelNegative},
	}}
	e := New(st, config.ExportConfig{Dir: dir, KeepLast: 5})

	path, err := e.RunImmediate(context.Background())
	if err != nil {
		t.Fatalf("RunImmediate: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("snapshot written outside dir: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	for i, col := range models.AnnotationHeader {
		if rows[0][i] != col {
			t.Fatalf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}
	if rows[1][0] != "alice" || rows[1][2] != models.LabelPositive {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][0] != "bob" || rows[2][4] != models.LabelNegative {
		t.Fatalf("unexpected second row: %v", rows[2])
	}
}

func TestRunImmediateEmptyStoreHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	e := New(&memStore{}, config.ExportConfig{Dir: dir})

	path, err := e.RunImmediate(context.Background())
	if err != nil {
		t.Fatalf("RunImmediate: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("empty store should write header only, got %d rows", len(rows))
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	old := []string{
		"annotations-20240101T000000Z.csv",
		"annotations-20240102T000000Z.csv",
		"annotations-20240103T000000Z.csv",
	}
	for _, n := range old {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x\n"), 0o600); err != nil {
			t.Fatalf("seed snapshot: %v", err)
		}
	}
	// unrelated files survive pruning
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep\n"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	e := New(&memStore{}, config.ExportConfig{Dir: dir, KeepLast: 2})
	path, err := e.RunImmediate(context.Background())
	if err != nil {
		t.Fatalf("RunImmediate: %v", err)
	}

	for _, n := range old[:2] {
		if _, err := os.Stat(filepath.Join(dir, n)); !os.IsNotExist(err) {
			t.Fatalf("expected %s pruned", n)
		}
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("newest snapshot missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, old[2])); err != nil {
		t.Fatalf("second-newest snapshot missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

func TestStartDisabledIsNoop(t *testing.T) {
	e := New(&memStore{}, config.ExportConfig{Enabled: false})
	cancel, err := e.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
}

func TestStartRejectsInvalidCron(t *testing.T) {
	e := New(&memStore{}, config.ExportConfig{Enabled: true, Dir: t.TempDir(), Cron: "not a cron"})
	if _, err := e.Start(context.Background()); err == nil {
		t.Fatalf("expected invalid cron error")
	}
}
