// Package dataset loads the canonical order-line table from disk and keeps a
// reusable snapshot for the shells.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/metricdeck-cli/internal/ingest"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"github.com/KaramelBytes/metricdeck-cli/internal/taxonomy"
)

// Loader produces a canonical table.
type Loader interface {
	Load(ctx context.Context) (*table.Table, error)
}

// Source reads one export file and prepares it.
type Source struct {
	Path     string
	Ingest   ingest.Options
	Prepare  prepare.Options
	Taxonomy *taxonomy.Loader
}

// Load reads, prepares and, when a taxonomy is configured, enriches the file.
func (s Source) Load(ctx context.Context) (*table.Table, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("load dataset: no dataset path configured")
	}
	start := time.Now()
	raw, err := ingest.ReadFile(s.Path, s.Ingest)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := prepare.Prepare(raw, s.Prepare)
	if s.Taxonomy != nil {
		tx, err := s.Taxonomy.Get()
		if err != nil {
			return nil, fmt.Errorf("load dataset: %w", err)
		}
		t = taxonomy.Enrich(t, tx)
	}
	slog.Debug("dataset loaded", "path", s.Path, "rows", t.Len(), "columns", len(t.Columns()), "took", time.Since(start))
	return t, nil
}
