// Package domain models the EPA radon survey data used by the multilevel
// radon study and the transforms that reshape it into an analysis table.
//
// # Data Source
//
// Two files from the EPA State Residential Radon Survey (SRRS) are combined:
//
//	srrs2.dat  one row per home measurement (site readings)
//	cty.dat    one row per county with the county-level uranium estimate
//
// Both are comma-separated with a header row. The SRRS2 header pads column
// names with spaces ("idnum, state, state2, ...") and county names are
// right-padded ("AITKIN          "), so names and values are trimmed on load.
//
// # Column Conventions
//
// Site readings:
//
//	idnum     unique id of the measurement
//	state     two-letter state code, e.g. "MN"
//	stfips    state FIPS code, e.g. 27 for Minnesota
//	cntyfips  county FIPS code within the state
//	county    county name, upper case, padded
//	floor     floor of the measurement; 0 is the basement
//	activity  radon activity in pCi/L
//
// County table:
//
//	stfips, ctfips  state and county FIPS codes
//	st              two-letter state code
//	Uppm            soil uranium in parts per million
//
// # Join Keys
//
// The county-idx variant joins on a single composite FIPS number,
// stfips*1000 + cntyfips (see [CountyFIPS]); the state-county variant joins
// on the (stfips, cntyfips) pair (see [CountyKey]). County FIPS codes are
// three digits, so both keys identify the same county.
//
// # Drops
//
// Three kinds of rows are filtered out on purpose and counted in [Stats]:
// sites whose county has no uranium record, repeated idnum values (the first
// occurrence after the join wins), and, in the state-county variant only,
// sites with an empty county name.
//
// # County Index
//
// The county-idx variant numbers distinct normalized county names in the
// order they are first seen after de-duplication. The index is only
// meaningful within one run; a revised input file can renumber counties.
package domain
