package schema

import (
	"errors"
	"fmt"
)

// ProbeError reports why the integrity probe did not find a usable table.
type ProbeError struct {
	Result ProbeResult // Missing or Corrupt
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %s: %v", TableName, e.Result, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// SchemaError reports a migration statement that does not fit the table
// definition. It is raised before anything reaches storage.
type SchemaError struct {
	// Statement is the index of the offending statement in the migration.
	Statement int
	// Column names the offending column, if any.
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema: statement %d: column %s: %s", e.Statement, e.Column, e.Reason)
	}
	return fmt.Sprintf("schema: statement %d: %s", e.Statement, e.Reason)
}

// IsMissing returns true if err is a ProbeError classifying the table as missing.
func IsMissing(err error) bool {
	var pe *ProbeError
	return errors.As(err, &pe) && pe.Result == Missing
}

// IsCorrupt returns true if err is a ProbeError classifying the table as corrupt.
func IsCorrupt(err error) bool {
	var pe *ProbeError
	return errors.As(err, &pe) && pe.Result == Corrupt
}

// IsSchemaError returns true if err is or wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
