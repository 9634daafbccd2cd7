package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"framelabel/pkg/logger"
	"framelabel/pkg/models"
)

// SQLite stores annotations in a single-table sqlite database using the
// pure-Go modernc driver. The implicit rowid preserves insertion order.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database file and ensures the schema.
func OpenSQLite(path string) (*SQLite, error) {
	logger.Info("opening_sqlite_store", "path", path)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("sqlite_open_failed", "path", path, "err", err)
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite is happiest with a single writer connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("sqlite_pragma_failed", "pragma", "busy_timeout", "err", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("sqlite_pragma_failed", "pragma", "journal_mode", "err", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS annotations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		annotator_id TEXT NOT NULL,
		sentence_id TEXT NOT NULL,
		label TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		label_order_first TEXT NOT NULL DEFAULT ''
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure annotations table: %w", err)
	}
	logger.Info("sqlite_store_opened", "path", path)
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Append(ctx context.Context, a models.Annotation) (err error) {
	defer func() { observeAppend("sqlite", err) }()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO annotations (annotator_id, sentence_id, label, timestamp, label_order_first)
		 VALUES (?, ?, ?, ?, ?)`,
		a.AnnotatorID, a.SentenceID, a.Label, a.Timestamp, a.LabelOrderFirst)
	if err != nil {
		logger.Error("annotation_append_failed", "backend", "sqlite", "err", err)
		return err
	}
	logger.Debug("annotation_appended", "backend", "sqlite",
		"annotator", a.AnnotatorID, "sentence", a.SentenceID)
	return nil
}

func (s *SQLite) ListAll(ctx context.Context) ([]models.Annotation, error) {
	defer observeList("sqlite", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT annotator_id, sentence_id, label, timestamp, label_order_first
		 FROM annotations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Annotation{}
	for rows.Next() {
		var a models.Annotation
		if err := rows.Scan(&a.AnnotatorID, &a.SentenceID, &a.Label, &a.Timestamp, &a.LabelOrderFirst); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	if err == nil {
		logger.Info("sqlite_store_closed", "path", s.path)
	}
	return err
}
