package dataprocessing

import (
	"fmt"
	"strings"
)

// InputError reports that the loader was not given a usable source
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

// ErrNoSource is returned when neither an upload nor a path was provided
var ErrNoSource = &InputError{Reason: "no source provided for data load"}

// SchemaError reports required columns absent from the input header
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		quoted[i] = "'" + c + "'"
	}
	return fmt.Sprintf("missing columns in data: [%s]", strings.Join(quoted, ", "))
}

// CellError reports a cell that could not be parsed into its column type.
// Row is the 1-based worksheet row.
type CellError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d column %s: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}
