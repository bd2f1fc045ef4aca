package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeCounty turns a raw county name into a stable grouping key:
// "ST. LOUIS   " -> "STLOUIS". Whitespace and periods are removed everywhere,
// not just at the ends. The result is NFKC-normalized, and normalizing it
// again returns it unchanged.
func NormalizeCounty(name string) string {
	s := norm.NFKC.String(name)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	// Removing runes can leave a base letter next to a combining mark.
	return norm.NFKC.String(b.String())
}

// CountyFIPS builds the composite county identifier stfips*1000 + cntyfips,
// e.g. (27, 137) -> 27137 for St. Louis County, MN.
func CountyFIPS(stateFIPS, countyFIPS int) int {
	return stateFIPS*1000 + countyFIPS
}

// CountyKey identifies a county by its FIPS pair.
type CountyKey struct {
	StateFIPS  int
	CountyFIPS int
}

// StateCounty builds the composite "<state>_<county>" key of the
// state-county variant from an already normalized county name.
func StateCounty(state, county string) string {
	return strings.ToUpper(strings.TrimSpace(state)) + "_" + county
}
