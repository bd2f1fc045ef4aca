// Package csvfile loads the SRRS2 site table and the county uranium table
// from comma-separated files.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/radon-data-etl/internal/domain"
)

var (
	siteColumns   = []string{"idnum", "state", "county", "cntyfips", "stfips", "floor", "activity"}
	countyColumns = []string{"stfips", "ctfips", "st", "Uppm"}
)

// Loader reads both input tables. It implements pipeline.Extractor.
type Loader struct {
	sitesPath    string
	countiesPath string
	state        string
	logger       *slog.Logger
}

// NewLoader creates a Loader for the given files. A non-empty state keeps only
// rows for that state code.
func NewLoader(sitesPath, countiesPath, state string, logger *slog.Logger) *Loader {
	return &Loader{
		sitesPath:    sitesPath,
		countiesPath: countiesPath,
		state:        state,
		logger:       logger,
	}
}

// Extract loads the site table, then the county table, and applies the state filter.
func (l *Loader) Extract(ctx context.Context) (domain.Tables, error) {
	if err := ctx.Err(); err != nil {
		return domain.Tables{}, err
	}

	sites, err := LoadSites(l.sitesPath)
	if err != nil {
		return domain.Tables{}, err
	}
	counties, err := LoadCounties(l.countiesPath)
	if err != nil {
		return domain.Tables{}, err
	}

	t := domain.Tables{Sites: sites, Counties: counties}.FilterState(l.state)
	l.logger.Debug("tables loaded",
		"sites_file", l.sitesPath,
		"sites", len(sites),
		"counties_file", l.countiesPath,
		"counties", len(counties),
		"state", l.state,
		"sites_in_state", len(t.Sites),
		"counties_in_state", len(t.Counties),
	)
	return t, nil
}

// LoadSites reads the SRRS2 site table.
func LoadSites(path string) ([]domain.SiteReading, error) {
	tbl, err := readTable(path, siteColumns)
	if err != nil {
		return nil, err
	}

	sites := make([]domain.SiteReading, 0, len(tbl.rows))
	for _, r := range tbl.rows {
		p := rowParser{path: path, row: r, cols: tbl.cols}
		s := domain.SiteReading{
			IDNum:      p.atoi("idnum"),
			State:      p.str("state"),
			County:     p.raw("county"),
			CountyFIPS: p.atoi("cntyfips"),
			StateFIPS:  p.atoi("stfips"),
			Floor:      p.atoi("floor"),
			Activity:   p.parseFloat("activity"),
			Line:       r.line,
		}
		if p.err != nil {
			return nil, p.err
		}
		sites = append(sites, s)
	}
	return sites, nil
}

// LoadCounties reads the county uranium table.
func LoadCounties(path string) ([]domain.County, error) {
	tbl, err := readTable(path, countyColumns)
	if err != nil {
		return nil, err
	}

	counties := make([]domain.County, 0, len(tbl.rows))
	for _, r := range tbl.rows {
		p := rowParser{path: path, row: r, cols: tbl.cols}
		c := domain.County{
			StateFIPS:  p.atoi("stfips"),
			CountyFIPS: p.atoi("ctfips"),
			State:      p.str("st"),
			Uppm:       p.parseFloat("Uppm"),
			Line:       r.line,
		}
		if p.err != nil {
			return nil, p.err
		}
		counties = append(counties, c)
	}
	return counties, nil
}

type csvRow struct {
	line   int
	fields []string
}

type table struct {
	cols map[string]int
	rows []csvRow
}

// readTable reads a whole CSV file, trims the header names and checks that
// every required column is present.
func readTable(path string, required []string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, fmt.Errorf("%w: %w", domain.ErrUnreadableInput, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return table{}, fmt.Errorf("%w: %s: empty file", domain.ErrMalformedInput, path)
	}
	if err != nil {
		return table{}, fmt.Errorf("%w: %s: %w", domain.ErrMalformedInput, path, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return table{}, fmt.Errorf("%w: %s: %q", domain.ErrMissingColumn, path, name)
		}
	}

	var rows []csvRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table{}, fmt.Errorf("%w: %s: %w", domain.ErrMalformedInput, path, err)
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, csvRow{line: line, fields: rec})
	}
	return table{cols: cols, rows: rows}, nil
}

// rowParser extracts typed cells from a row and keeps the first error.
type rowParser struct {
	path string
	row  csvRow
	cols map[string]int
	err  error
}

func (p *rowParser) raw(col string) string {
	return p.row.fields[p.cols[col]]
}

func (p *rowParser) str(col string) string {
	return strings.TrimSpace(p.raw(col))
}

func (p *rowParser) atoi(col string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.str(col))
	if err != nil {
		p.fail(col, err)
		return 0
	}
	return v
}

func (p *rowParser) parseFloat(col string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.str(col), 64)
	if err != nil {
		p.fail(col, err)
		return 0
	}
	return v
}

func (p *rowParser) fail(col string, err error) {
	p.err = fmt.Errorf("%w: %s line %d column %q: %w", domain.ErrMalformedInput, p.path, p.row.line, col, err)
}
