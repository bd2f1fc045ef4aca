// Package tsv emits the cleaned table as tab-separated text.
package tsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/couchcryptid/radon-data-etl/internal/domain"
)

// Writer writes a header row and one line per cleaned row. It implements
// pipeline.Loader.
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer on w, usually standard output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "tsv" }

// Load writes the variant's header followed by every row in order.
func (w *Writer) Load(ctx context.Context, v domain.Variant, rows []domain.CleanRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cw := csv.NewWriter(w.w)
	cw.Comma = '\t'

	if err := cw.Write(domain.Columns(v)); err != nil {
		return fmt.Errorf("write tsv header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(rows[i].Values(v)); err != nil {
			return fmt.Errorf("write tsv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush tsv: %w", err)
	}
	return nil
}
