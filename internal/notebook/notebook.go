// Package notebook strips execution state from Jupyter notebooks so that
// only source cells end up under version control.
package notebook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedDocument is returned when the input is not a notebook JSON object
// with a cells array.
var ErrMalformedDocument = errors.New("malformed notebook document")

// Stats counts what a scrub removed.
type Stats struct {
	Cells           int
	ClearedOutputs  int
	ClearedCounts   int
	RemovedTypes    int
	ClearedMetadata int
}

// Scrub clears outputs, execution counts, output types and metadata from
// every cell of a decoded notebook, in place.
func Scrub(doc map[string]any) (Stats, error) {
	raw, ok := doc["cells"]
	if !ok {
		return Stats{}, fmt.Errorf("%w: no cells field", ErrMalformedDocument)
	}
	cells, ok := raw.([]any)
	if !ok {
		return Stats{}, fmt.Errorf("%w: cells is %T, want array", ErrMalformedDocument, raw)
	}

	var st Stats
	for i, c := range cells {
		cell, ok := c.(map[string]any)
		if !ok {
			return Stats{}, fmt.Errorf("%w: cell %d is %T, want object", ErrMalformedDocument, i, c)
		}
		st.Cells++
		if _, ok := cell["outputs"]; ok {
			cell["outputs"] = []any{}
			st.ClearedOutputs++
		}
		if _, ok := cell["execution_count"]; ok {
			cell["execution_count"] = nil
			st.ClearedCounts++
		}
		if _, ok := cell["output_type"]; ok {
			delete(cell, "output_type")
			st.RemovedTypes++
		}
		if m, ok := cell["metadata"].(map[string]any); !ok || len(m) > 0 {
			st.ClearedMetadata++
		}
		cell["metadata"] = map[string]any{}
	}
	return st, nil
}

// Filter reads one notebook from r, scrubs it and writes it to w with keys
// sorted and a one-space indent. Numbers are copied as written.
func Filter(r io.Reader, w io.Writer) (Stats, error) {
	doc, err := decode(r)
	if err != nil {
		return Stats{}, err
	}

	st, err := Scrub(doc)
	if err != nil {
		return Stats{}, err
	}

	// Encoding a map[string]any sorts keys at every level.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(doc); err != nil {
		return Stats{}, fmt.Errorf("encode notebook: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return Stats{}, fmt.Errorf("write notebook: %w", err)
	}
	return st, nil
}

func decode(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformedDocument)
	}

	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %T, want object", ErrMalformedDocument, v)
	}
	return doc, nil
}
