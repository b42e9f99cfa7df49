package spectrum

import "fmt"

// ParseError describes a single row that could not be read. Rows carrying a
// ParseError are dropped; the surrounding trace or table is still used.
type ParseError struct {
	Line  int    // 1-based line number in the source
	Field string // column name or index
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("line %d: field %s: %v", e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("line %d: field %s: cannot parse %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
