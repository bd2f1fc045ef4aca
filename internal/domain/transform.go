package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Clean runs the full transform for one variant: inner join with the county
// table, de-duplication by idnum, county normalization, and the
// variant-specific derived columns. Row order follows the site table.
func Clean(t Tables, v Variant) (Result, error) {
	if _, err := ParseVariant(string(v)); err != nil {
		return Result{}, err
	}

	stats := Stats{Sites: len(t.Sites), Counties: len(t.Counties)}

	joined, unmatched := Join(t.Sites, t.Counties, v)
	stats.Unmatched = unmatched

	joined, dupes := Dedup(joined)
	stats.Duplicates = dupes

	rows := make([]CleanRow, 0, len(joined))
	for _, j := range joined {
		row := newCleanRow(j)
		if v == VariantStateCounty {
			if row.County == "" {
				stats.MissingCounty++
				continue
			}
			row.StateCounty = StateCounty(row.State, row.County)
		}
		rows = append(rows, row)
	}

	if v == VariantCountyIndex {
		lookup := IndexCounties(rows)
		for i := range rows {
			rows[i].CountyIdx = lookup[rows[i].County]
		}
	}

	stats.Emitted = len(rows)
	return Result{Variant: v, Rows: rows, Stats: stats}, nil
}

func newCleanRow(j Joined) CleanRow {
	return CleanRow{
		IDNum:         j.Site.IDNum,
		State:         strings.TrimSpace(j.Site.State),
		County:        NormalizeCounty(j.Site.County),
		Floor:         j.Site.Floor,
		IsBasement:    j.Site.Floor == 0,
		CountyUranium: j.County.Uppm,
		Radon:         j.Site.Activity,
	}
}

// Join attaches the matching county record to every site, dropping sites
// whose county is absent from the county table. It returns the joined rows
// in site order and the number of sites dropped. When the county table holds
// the same key twice, the first record wins.
func Join(sites []SiteReading, counties []County, v Variant) ([]Joined, int) {
	if v == VariantStateCounty {
		return joinOn(sites, counties,
			func(s SiteReading) CountyKey { return CountyKey{StateFIPS: s.StateFIPS, CountyFIPS: s.CountyFIPS} },
			func(c County) CountyKey { return CountyKey{StateFIPS: c.StateFIPS, CountyFIPS: c.CountyFIPS} },
		)
	}
	return joinOn(sites, counties,
		func(s SiteReading) int { return CountyFIPS(s.StateFIPS, s.CountyFIPS) },
		func(c County) int { return CountyFIPS(c.StateFIPS, c.CountyFIPS) },
	)
}

func joinOn[K comparable](sites []SiteReading, counties []County, siteKey func(SiteReading) K, countyKey func(County) K) ([]Joined, int) {
	index := make(map[K]County, len(counties))
	for _, c := range counties {
		k := countyKey(c)
		if _, ok := index[k]; !ok {
			index[k] = c
		}
	}

	out := make([]Joined, 0, len(sites))
	unmatched := 0
	for _, s := range sites {
		c, ok := index[siteKey(s)]
		if !ok {
			unmatched++
			continue
		}
		out = append(out, Joined{Site: s, County: c})
	}
	return out, unmatched
}

// Dedup keeps the first row for each idnum and returns how many were dropped.
func Dedup(rows []Joined) ([]Joined, int) {
	seen := make(map[int]struct{}, len(rows))
	out := make([]Joined, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.Site.IDNum]; ok {
			continue
		}
		seen[r.Site.IDNum] = struct{}{}
		out = append(out, r)
	}
	return out, len(rows) - len(out)
}

// IndexCounties maps each distinct county name to the rank of its first
// appearance in rows, starting at zero.
func IndexCounties(rows []CleanRow) map[string]int {
	lookup := make(map[string]int)
	for _, r := range rows {
		if _, ok := lookup[r.County]; !ok {
			lookup[r.County] = len(lookup)
		}
	}
	return lookup
}

// Columns returns the output header for a variant.
func Columns(v Variant) []string {
	if v == VariantStateCounty {
		return []string{"idnum", "state", "state_county", "floor", "is_basement", "county_uranium", "radon"}
	}
	return []string{"idnum", "state", "county", "county_idx", "floor", "is_basement", "county_uranium", "radon"}
}

// Values projects the row onto the columns of a variant, formatted for text
// output.
func (r CleanRow) Values(v Variant) []string {
	if v == VariantStateCounty {
		return []string{
			strconv.Itoa(r.IDNum),
			r.State,
			r.StateCounty,
			strconv.Itoa(r.Floor),
			strconv.FormatBool(r.IsBasement),
			formatFloat(r.CountyUranium),
			formatFloat(r.Radon),
		}
	}
	return []string{
		strconv.Itoa(r.IDNum),
		r.State,
		r.County,
		strconv.Itoa(r.CountyIdx),
		strconv.Itoa(r.Floor),
		strconv.FormatBool(r.IsBasement),
		formatFloat(r.CountyUranium),
		formatFloat(r.Radon),
	}
}

// Record projects the row onto the columns of a variant with typed values,
// keyed by column name.
func (r CleanRow) Record(v Variant) map[string]any {
	rec := map[string]any{
		"idnum":          r.IDNum,
		"state":          r.State,
		"floor":          r.Floor,
		"is_basement":    r.IsBasement,
		"county_uranium": r.CountyUranium,
		"radon":          r.Radon,
	}
	if v == VariantStateCounty {
		rec["state_county"] = r.StateCounty
	} else {
		rec["county"] = r.County
		rec["county_idx"] = r.CountyIdx
	}
	return rec
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// String summarizes the drop counts for log lines and error messages.
func (s Stats) String() string {
	return fmt.Sprintf("sites=%d counties=%d unmatched=%d duplicates=%d missing_county=%d emitted=%d",
		s.Sites, s.Counties, s.Unmatched, s.Duplicates, s.MissingCounty, s.Emitted)
}
