package domain

import (
	"fmt"
	"strings"
)

// Variant selects one of the two cleaning transforms.
type Variant string

const (
	// VariantCountyIndex joins on the composite FIPS number and numbers counties.
	VariantCountyIndex Variant = "county-idx"
	// VariantStateCounty joins on the FIPS pair, drops rows without a county,
	// and emits a composite state_county key.
	VariantStateCounty Variant = "state-county"
)

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.TrimSpace(s)); v {
	case VariantCountyIndex, VariantStateCounty:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// SiteReading is one row of the SRRS2 site table.
type SiteReading struct {
	IDNum      int
	State      string
	County     string // raw name as loaded, before normalization
	CountyFIPS int
	StateFIPS  int
	Floor      int
	Activity   float64
	Line       int // 1-based line in the source file
}

// County is one row of the county uranium table.
type County struct {
	StateFIPS  int
	CountyFIPS int
	State      string
	Uppm       float64
	Line       int
}

// Tables holds both input tables fully materialized.
type Tables struct {
	Sites    []SiteReading
	Counties []County
}

// FilterState keeps only rows for the given state code. An empty code keeps
// everything.
func (t Tables) FilterState(code string) Tables {
	code = strings.TrimSpace(code)
	if code == "" {
		return t
	}
	out := Tables{
		Sites:    make([]SiteReading, 0, len(t.Sites)),
		Counties: make([]County, 0, len(t.Counties)),
	}
	for _, s := range t.Sites {
		if strings.EqualFold(strings.TrimSpace(s.State), code) {
			out.Sites = append(out.Sites, s)
		}
	}
	for _, c := range t.Counties {
		if strings.EqualFold(strings.TrimSpace(c.State), code) {
			out.Counties = append(out.Counties, c)
		}
	}
	return out
}

// Joined pairs a site with the county record it matched.
type Joined struct {
	Site   SiteReading
	County County
}

// CleanRow is one row of the derived analysis table.
type CleanRow struct {
	IDNum         int
	State         string
	County        string
	CountyIdx     int
	StateCounty   string
	Floor         int
	IsBasement    bool
	CountyUranium float64
	Radon         float64
}

// Stats counts rows in and out of a transform and the intentional drops.
type Stats struct {
	Sites         int
	Counties      int
	Unmatched     int
	Duplicates    int
	MissingCounty int
	Emitted       int
}

// Result is the outcome of one cleaning pass.
type Result struct {
	Variant Variant
	Rows    []CleanRow
	Stats   Stats
}
