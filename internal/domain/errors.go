package domain

import "errors"

var (
	// ErrUnreadableInput marks an input file that is missing or cannot be read.
	ErrUnreadableInput = errors.New("unreadable input")
	// ErrMissingColumn marks an input table without a required column.
	ErrMissingColumn = errors.New("missing column")
	// ErrMalformedInput marks a CSV parse failure or a cell that is not a number.
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnknownVariant is returned for a transform variant other than the two known ones.
	ErrUnknownVariant = errors.New("unknown variant")
)
