// Package progress derives annotator progress from the raw annotation
// list. Every figure counts distinct sentence ids, so duplicate
// submissions never inflate the numbers.
package progress

import (
	"context"

	"framelabel/pkg/dataset"
	"framelabel/pkg/models"
	"framelabel/pkg/store"
)

// DoneSet returns the distinct sentence ids the annotator has stored.
func DoneSet(ctx context.Context, st store.Store, annotatorID string) (map[string]struct{}, error) {
	anns, err := st.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]struct{})
	for _, a := range anns {
		if a.AnnotatorID == annotatorID {
			done[a.SentenceID] = struct{}{}
		}
	}
	return done, nil
}

// Summarize caps the done count at the catalog size and derives the
// remaining and exhausted fields. The cap matters when the store holds
// ids that have since left the catalog.
func Summarize(annotatorID string, done map[string]struct{}, total int) models.Progress {
	p := models.Progress{AnnotatorID: annotatorID, Done: len(done), Total: total}
	if p.Done > p.Total {
		p.Done = p.Total
	}
	p.Remaining = p.Total - p.Done
	p.Exhausted = p.Remaining == 0
	return p
}

// ForAnnotator reads the store once and summarizes one annotator
// against the catalog.
func ForAnnotator(ctx context.Context, st store.Store, data *dataset.Catalog, annotatorID string) (models.Progress, error) {
	done, err := DoneSet(ctx, st, annotatorID)
	if err != nil {
		return models.Progress{}, err
	}
	return Summarize(annotatorID, done, data.Len()), nil
}

// SentenceCoverage is the per-sentence record count.
type SentenceCoverage struct {
	SentenceID string `json:"sentence_id"`
	Count      int    `json:"count"`
}

// Coverage counts records per catalog sentence, in catalog order,
// including sentences nobody has annotated yet.
func Coverage(ctx context.Context, st store.Store, data *dataset.Catalog) ([]SentenceCoverage, error) {
	anns, err := st.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, a := range anns {
		counts[a.SentenceID]++
	}
	out := make([]SentenceCoverage, 0, data.Len())
	for _, id := range data.IDs() {
		out = append(out, SentenceCoverage{SentenceID: id, Count: counts[id]})
	}
	return out, nil
}
