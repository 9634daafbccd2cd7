// Package dataset loads the sentence pool served to annotators. The pool
// is a CSV file with a header row; it is read once at startup and is
// immutable for the lifetime of the process.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"framelabel/pkg/models"
)

// Catalog is an immutable, ordered view of the sentence CSV.
type Catalog struct {
	path       string
	idColumn   string
	textColumn string
	ids        []string
	byID       map[string]models.Sentence
}

// Load reads the CSV at path and indexes it by the id column. maxSize
// bounds the file size in bytes; zero disables the check. The first row
// wins when an id repeats; rows with an empty id are skipped.
func Load(path, idColumn, textColumn string, maxSize int64) (*Catalog, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dataset not accessible: %w", err)
	}
	if maxSize > 0 && fi.Size() > maxSize {
		return nil, fmt.Errorf("dataset %s is %d bytes, exceeds limit of %d", path, fi.Size(), maxSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	idIdx, textIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case idColumn:
			idIdx = i
		case textColumn:
			textIdx = i
		}
	}
	if idIdx < 0 || textIdx < 0 {
		return nil, fmt.Errorf("dataset %s missing required columns %q and %q (found: %s)",
			path, idColumn, textColumn, strings.Join(header, ", "))
	}

	c := &Catalog{
		path:       path,
		idColumn:   idColumn,
		textColumn: textColumn,
		byID:       make(map[string]models.Sentence),
	}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row: %w", err)
		}
		id := strings.TrimSpace(row[idIdx])
		if id == "" {
			continue
		}
		if _, dup := c.byID[id]; dup {
			continue
		}
		c.byID[id] = models.Sentence{ID: id, Text: row[textIdx]}
		c.ids = append(c.ids, id)
	}
	if len(c.ids) == 0 {
		return nil, fmt.Errorf("dataset %s contains no usable rows", path)
	}
	return c, nil
}

// IDs returns the sentence ids in file order. The slice is a copy.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Get returns the sentence for id.
func (c *Catalog) Get(id string) (models.Sentence, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Has reports whether id is part of the pool.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of distinct sentences.
func (c *Catalog) Len() int { return len(c.ids) }

// Path returns the file the catalog was loaded from.
func (c *Catalog) Path() string { return c.path }

// Columns returns the configured id and text column names.
func (c *Catalog) Columns() (string, string) { return c.idColumn, c.textColumn }
