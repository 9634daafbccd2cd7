package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"framelabel/pkg/logger"
	"framelabel/pkg/models"
)

// annPrefix namespaces annotation keys inside the pebble keyspace.
const annPrefix = "ann:"

// Pebble stores annotations in a local pebble database. Keys carry a
// zero-padded nanosecond timestamp plus a small counter so iteration
// order is insertion order even when two writes land on the same
// nanosecond.
type Pebble struct {
	db   *pebble.DB
	path string
	seq  uint64
}

// OpenPebble opens (or creates) a pebble database at the given path.
func OpenPebble(path string) (*Pebble, error) {
	logger.Info("opening_pebble_store", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "err", err)
		return nil, err
	}
	logger.Info("pebble_store_opened", "path", path)
	return &Pebble{db: db, path: path}, nil
}

func (p *Pebble) Append(ctx context.Context, a models.Annotation) (err error) {
	defer func() { observeAppend("pebble", err) }()
	if err = ctx.Err(); err != nil {
		return err
	}
	if p.db == nil {
		return fmt.Errorf("pebble store not opened")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal annotation: %w", err)
	}
	ts := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&p.seq, 1)
	key := fmt.Sprintf("%s%020d-%06d", annPrefix, ts, s)
	if err = p.db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("annotation_append_failed", "backend", "pebble", "key", key, "err", err)
		return err
	}
	logger.Debug("annotation_appended", "backend", "pebble", "key", key,
		"annotator", a.AnnotatorID, "sentence", a.SentenceID)
	return nil
}

func (p *Pebble) ListAll(ctx context.Context) ([]models.Annotation, error) {
	defer observeList("pebble", time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.db == nil {
		return nil, fmt.Errorf("pebble store not opened")
	}
	prefix := []byte(annPrefix)
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	out := []models.Annotation{}
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var a models.Annotation
		if err := json.Unmarshal(iter.Value(), &a); err != nil {
			return nil, fmt.Errorf("invalid annotation at %s: %w", iter.Key(), err)
		}
		out = append(out, a)
	}
	return out, iter.Error()
}

func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	if err := p.db.Close(); err != nil {
		return err
	}
	p.db = nil
	logger.Info("pebble_store_closed", "path", p.path)
	return nil
}
