// Command validate checks a cleaned radon TSV against the raw inputs it was
// produced from. It rebuilds the expected rows from the site and county
// tables independently of the pipeline and verifies the header, idnum
// uniqueness, the county join, the inner-join exclusions and the county
// normalization.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -sites data/srrs2.dat \
//	  -counties data/cty.dat \
//	  -tsv clean_data.tsv \
//	  -variant county-idx -state MN
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/couchcryptid/radon-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/radon-data-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	sitesPath := fs.String("sites", "", "path to the SRRS2 site table")
	countiesPath := fs.String("counties", "", "path to the county uranium table")
	tsvPath := fs.String("tsv", "", "path to the cleaned TSV")
	variantFlag := fs.String("variant", string(domain.VariantCountyIndex), "variant the TSV was produced with")
	state := fs.String("state", "MN", "state filter the TSV was produced with; empty for all states")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *sitesPath == "" || *countiesPath == "" || *tsvPath == "" {
		fs.Usage()
		return 2
	}
	variant, err := domain.ParseVariant(*variantFlag)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	fmt.Fprintln(stdout, "=== Radon Clean Data Validation ===")
	fmt.Fprintln(stdout)

	sites, err := csvfile.LoadSites(*sitesPath)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load sites: %v\n", err)
		return 1
	}
	counties, err := csvfile.LoadCounties(*countiesPath)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load counties: %v\n", err)
		return 1
	}
	tables := domain.Tables{Sites: sites, Counties: counties}.FilterState(*state)

	header, rows, err := loadTSV(*tsvPath)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load TSV: %v\n", err)
		return 1
	}

	exp := buildExpected(tables, variant)

	phases := []*phase{
		validateHeader(header, rows, variant),
		validateUniqueIDs(rows),
		validateJoin(rows, exp, variant),
		validateExclusions(rows, exp),
		validateNormalization(rows, exp, variant),
	}

	fmt.Fprintln(stdout)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Records: %d sites, %d counties, %d expected, %d TSV rows\n",
		len(tables.Sites), len(tables.Counties), len(exp.order), len(rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(stdout, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(stdout, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// tsvRow is a parsed TSV row with field values keyed by header name.
type tsvRow struct {
	lineNum int
	fields  map[string]string
	width   int
}

func loadTSV(path string) ([]string, []tsvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, errors.New("empty file")
	}

	header := all[0]
	rows := make([]tsvRow, 0, len(all)-1)
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = row[j]
			}
		}
		rows = append(rows, tsvRow{lineNum: i + 2, fields: fields, width: len(row)})
	}
	return header, rows, nil
}

// ── Expected rows ──

// expectedRow is the site and county a cleaned row must come from.
type expectedRow struct {
	site   domain.SiteReading
	county domain.County
}

type expected struct {
	rows      map[int]expectedRow
	order     []int
	unmatched map[int]bool // idnum has no county record at all
	noCounty  map[int]bool // dropped by the state-county variant for an empty county
}

// buildExpected walks the raw tables the slow way: first county record per
// key, first matched site per idnum, in site order.
func buildExpected(t domain.Tables, v domain.Variant) expected {
	key := func(stfips, ctfips int) string {
		if v == domain.VariantStateCounty {
			return strconv.Itoa(stfips) + "/" + strconv.Itoa(ctfips)
		}
		return strconv.Itoa(domain.CountyFIPS(stfips, ctfips))
	}

	countyByKey := make(map[string]domain.County)
	for _, c := range t.Counties {
		k := key(c.StateFIPS, c.CountyFIPS)
		if _, ok := countyByKey[k]; !ok {
			countyByKey[k] = c
		}
	}

	exp := expected{
		rows:      make(map[int]expectedRow),
		unmatched: make(map[int]bool),
		noCounty:  make(map[int]bool),
	}
	for _, s := range t.Sites {
		c, ok := countyByKey[key(s.StateFIPS, s.CountyFIPS)]
		if !ok {
			if _, kept := exp.rows[s.IDNum]; !kept {
				exp.unmatched[s.IDNum] = true
			}
			continue
		}
		if _, seen := exp.rows[s.IDNum]; seen || exp.noCounty[s.IDNum] {
			continue
		}
		delete(exp.unmatched, s.IDNum)
		if v == domain.VariantStateCounty && domain.NormalizeCounty(s.County) == "" {
			exp.noCounty[s.IDNum] = true
			continue
		}
		exp.rows[s.IDNum] = expectedRow{site: s, county: c}
		exp.order = append(exp.order, s.IDNum)
	}
	return exp
}

// ── Validation phases ──

func validateHeader(header []string, rows []tsvRow, v domain.Variant) *phase {
	p := &phase{name: "Header and columns"}

	want := domain.Columns(v)
	if strings.Join(header, "\t") != strings.Join(want, "\t") {
		p.errorf("header = %q, want %q", header, want)
	}
	for _, r := range rows {
		if r.width != len(header) {
			p.errorf("line %d: %d fields, header has %d", r.lineNum, r.width, len(header))
		}
	}
	return p
}

func validateUniqueIDs(rows []tsvRow) *phase {
	p := &phase{name: "Unique idnum"}

	seen := make(map[string]int, len(rows))
	for _, r := range rows {
		id := r.fields["idnum"]
		if first, dup := seen[id]; dup {
			p.errorf("line %d: idnum %s already on line %d", r.lineNum, id, first)
			continue
		}
		seen[id] = r.lineNum
	}
	return p
}

func validateJoin(rows []tsvRow, exp expected, v domain.Variant) *phase {
	p := &phase{name: "County join"}

	for _, r := range rows {
		id, err := strconv.Atoi(r.fields["idnum"])
		if err != nil {
			p.errorf("line %d: idnum %q is not an integer", r.lineNum, r.fields["idnum"])
			continue
		}
		e, ok := exp.rows[id]
		if !ok {
			continue // reported by the exclusion phase
		}
		checkJoinedRow(p.errorf, r, e)
	}

	if v == domain.VariantCountyIndex {
		checkCountyIndex(p, rows)
	}
	return p
}

func checkJoinedRow(pf func(string, ...any), r tsvRow, e expectedRow) {
	line := r.lineNum
	if got := r.fields["state"]; got != e.site.State {
		pf("line %d: state = %q, want %q", line, got, e.site.State)
	}

	floor, err := strconv.Atoi(r.fields["floor"])
	switch {
	case err != nil:
		pf("line %d: floor %q is not an integer", line, r.fields["floor"])
	case floor != e.site.Floor:
		pf("line %d: floor = %d, want %d", line, floor, e.site.Floor)
	}

	basement, err := strconv.ParseBool(r.fields["is_basement"])
	switch {
	case err != nil:
		pf("line %d: is_basement %q is not a boolean", line, r.fields["is_basement"])
	case basement != (e.site.Floor == 0):
		pf("line %d: is_basement = %t for floor %d", line, basement, e.site.Floor)
	}

	checkFloat(pf, line, "county_uranium", r.fields["county_uranium"], e.county.Uppm)
	checkFloat(pf, line, "radon", r.fields["radon"], e.site.Activity)
}

func checkFloat(pf func(string, ...any), line int, col, raw string, want float64) {
	got, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		pf("line %d: %s %q is not a number", line, col, raw)
		return
	}
	if !floatEq(got, want) {
		pf("line %d: %s = %v, want %v", line, col, got, want)
	}
}

// checkCountyIndex verifies that county_idx numbers distinct counties in
// order of first appearance.
func checkCountyIndex(p *phase, rows []tsvRow) {
	next := 0
	assigned := make(map[string]int)
	for _, r := range rows {
		idx, err := strconv.Atoi(r.fields["county_idx"])
		if err != nil {
			p.errorf("line %d: county_idx %q is not an integer", r.lineNum, r.fields["county_idx"])
			continue
		}
		county := r.fields["county"]
		want, ok := assigned[county]
		if !ok {
			want = next
			assigned[county] = next
			next++
		}
		if idx != want {
			p.errorf("line %d: county_idx = %d for %q, want %d", r.lineNum, idx, county, want)
		}
	}
}

func validateExclusions(rows []tsvRow, exp expected) *phase {
	p := &phase{name: "Inner-join exclusions"}

	present := make(map[int]bool, len(rows))
	for _, r := range rows {
		id, err := strconv.Atoi(r.fields["idnum"])
		if err != nil {
			continue
		}
		present[id] = true
		switch {
		case exp.unmatched[id]:
			p.errorf("line %d: idnum %d has no county uranium record", r.lineNum, id)
		case exp.noCounty[id]:
			p.errorf("line %d: idnum %d has an empty county", r.lineNum, id)
		case !existsIn(exp.rows, id):
			p.errorf("line %d: idnum %d is not in the site table", r.lineNum, id)
		}
	}
	for _, id := range exp.order {
		if !present[id] {
			p.errorf("idnum %d is missing from the TSV", id)
		}
	}
	return p
}

func existsIn(rows map[int]expectedRow, id int) bool {
	_, ok := rows[id]
	return ok
}

func validateNormalization(rows []tsvRow, exp expected, v domain.Variant) *phase {
	p := &phase{name: "County normalization"}

	col := "county"
	if v == domain.VariantStateCounty {
		col = "state_county"
	}

	for _, r := range rows {
		got := r.fields[col]
		if strings.ContainsFunc(got, func(c rune) bool { return unicode.IsSpace(c) || c == '.' }) {
			p.errorf("line %d: %s %q still holds whitespace or periods", r.lineNum, col, got)
		}

		id, err := strconv.Atoi(r.fields["idnum"])
		if err != nil {
			continue
		}
		e, ok := exp.rows[id]
		if !ok {
			continue
		}

		county := domain.NormalizeCounty(e.site.County)
		want := county
		if v == domain.VariantStateCounty {
			want = domain.StateCounty(e.site.State, county)
		}
		if got != want {
			p.errorf("line %d: %s = %q, want %q", r.lineNum, col, got, want)
		}
		if domain.NormalizeCounty(county) != county {
			p.errorf("line %d: normalizing %q again changes it", r.lineNum, county)
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
