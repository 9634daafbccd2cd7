// Package store persists annotations. Every backend exposes the same
// three operations: list everything, append one record, close. Appends
// are fire-and-forget rows in header order; nothing deduplicates, so
// concurrent annotators can produce duplicate (annotator, sentence)
// pairs and readers must tolerate them.
package store

import (
	"context"
	"fmt"

	"framelabel/pkg/config"
	"framelabel/pkg/models"
)

// Store is the annotation backend contract.
type Store interface {
	// ListAll returns every stored annotation in insertion order. An
	// empty store yields an empty slice, not an error.
	ListAll(ctx context.Context) ([]models.Annotation, error)
	// Append writes one annotation. No uniqueness check is performed.
	Append(ctx context.Context, a models.Annotation) error
	Close() error
}

// Open constructs the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "pebble":
		return OpenPebble(cfg.Pebble.Path)
	case "sqlite":
		return OpenSQLite(cfg.SQLite.Path)
	case "sheets":
		return OpenSheets(ctx, cfg.Sheets)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
