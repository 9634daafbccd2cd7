package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"

	"framelabel/pkg/config"
	"framelabel/pkg/models"
	"framelabel/pkg/store"
)

// Dumps a local annotation store as CSV on stdout. Sheets is excluded
// on purpose: this tool is for poking at on-disk data without a server.
func main() {
	var backend, path string
	var limit int
	flag.StringVar(&backend, "backend", "pebble", "store backend: pebble or sqlite")
	flag.StringVar(&path, "path", "", "store path")
	flag.IntVar(&limit, "limit", 0, "print only the last N annotations (0 = all)")
	flag.Parse()
	if path == "" {
		fmt.Fprintln(os.Stderr, "--path required")
		os.Exit(2)
	}

	cfg := config.StoreConfig{Backend: backend}
	switch backend {
	case "pebble":
		cfg.Pebble.Path = path
	case "sqlite":
		cfg.SQLite.Path = path
	default:
		fmt.Fprintf(os.Stderr, "unsupported backend %q\n", backend)
		os.Exit(2)
	}

	st, err := store.Open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	anns, err := st.ListAll(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "list annotations: %v\n", err)
		os.Exit(1)
	}
	if limit > 0 && len(anns) > limit {
		anns = anns[len(anns)-limit:]
	}

	w := csv.NewWriter(os.Stdout)
	_ = w.Write(models.AnnotationHeader)
	for _, a := range anns {
		_ = w.Write(a.Row())
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "write csv: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%d annotations\n", len(anns))
}
