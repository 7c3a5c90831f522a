package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyInput reports a series with no usable observations. Aggregation
// and detection refuse to run on it rather than returning an empty table
// that looks like a valid result.
var ErrEmptyInput = errors.New("no data")

// ErrInsufficientHistory reports a series too short for the requested
// statistic. Distinct from ErrEmptyInput and from "zero events found".
var ErrInsufficientHistory = errors.New("insufficient history")

// MissingColumnError reports that a logical field required by the caller
// was not present in the export after header normalization.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found", e.Column)
}
